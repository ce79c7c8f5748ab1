package exec

import (
	"io"
	"strings"
)

// Option is a functional option
type Option func(*Options)

// Options is a collection of exec options
type Options struct {
	// Stdin is fed to the process when set.
	Stdin io.Reader
	// Streamed commands write their output directly to the runner's stdout and
	// stderr instead of having it captured. Used for long running commands such as
	// pacman and pacstrap so the user can follow progress.
	Streamed bool
	// ReadOnly marks a command as a query that doesn't change the system. A dry run
	// still executes read-only commands.
	ReadOnly bool
	// Env holds extra KEY=value pairs appended to the process environment.
	Env []string
	// hasInput is set by Stdin so that the input itself never needs to be inspected
	// when printing a command.
	hasInput bool
}

// Build returns Options with the given functional options applied.
func Build(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// HasInput returns true if the command receives data on stdin.
func (o *Options) HasInput() bool { return o.hasInput }

// Stdin feeds the given string to the command's standard input.
func Stdin(input string) Option {
	return func(o *Options) {
		o.Stdin = strings.NewReader(input)
		o.hasInput = true
	}
}

// Streamed lets the command write to the terminal directly.
func Streamed() Option {
	return func(o *Options) {
		o.Streamed = true
	}
}

// ReadOnly marks the command as a query without side effects.
func ReadOnly() Option {
	return func(o *Options) {
		o.ReadOnly = true
	}
}

// Env appends environment variables in KEY=value form.
func Env(pairs ...string) Option {
	return func(o *Options) {
		o.Env = append(o.Env, pairs...)
	}
}

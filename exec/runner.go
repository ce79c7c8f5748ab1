// Package exec runs the external programs an installation consists of (lsblk, fdisk,
// mkfs, pacstrap, arch-chroot, ...) on the local machine.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"strings"

	"github.com/grandchild/auto_install/errstring"
)

var (
	// ErrCommandFailed is returned when a command exits with an error.
	ErrCommandFailed = errstring.New("command failed")
	// ErrEmptyCommand is returned when a command without program name is run.
	ErrEmptyCommand = errstring.New("empty command")
)

// maxErrorOutput limits how much of a failed command's stderr ends up in the error.
const maxErrorOutput = 512

// Runner is a command runner.
type Runner interface {
	fmt.Stringer
	// Exec runs the command and only reports success or failure.
	Exec(ctx context.Context, argv []string, opts ...Option) error
	// ExecOutput runs the command and returns its standard output with leading and
	// trailing whitespace removed.
	ExecOutput(ctx context.Context, argv []string, opts ...Option) (string, error)
}

// DecorateFunc rewrites a command line before it is run.
type DecorateFunc func(argv []string) []string

// Chroot returns a DecorateFunc that runs commands inside the given root using
// arch-chroot.
func Chroot(root string) DecorateFunc {
	return func(argv []string) []string {
		return append([]string{"arch-chroot", root}, argv...)
	}
}

// validate interfaces.
var (
	_ Runner = (*LocalRunner)(nil)
	_ Runner = (*decoratedRunner)(nil)
)

// LocalRunner runs commands on this machine.
type LocalRunner struct {
	// Stdout and Stderr receive the output of streamed commands.
	Stdout io.Writer
	Stderr io.Writer
}

// NewLocalRunner returns a LocalRunner writing streamed output to the terminal.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// String returns the runner's string representation.
func (r *LocalRunner) String() string { return "localhost" }

// Exec runs a command.
func (r *LocalRunner) Exec(ctx context.Context, argv []string, opts ...Option) error {
	_, err := r.run(ctx, argv, Build(opts...))
	return err
}

// ExecOutput runs a command and returns its output.
func (r *LocalRunner) ExecOutput(ctx context.Context, argv []string, opts ...Option) (string, error) {
	out, err := r.run(ctx, argv, Build(opts...))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *LocalRunner) run(ctx context.Context, argv []string, options *Options) (string, error) {
	if len(argv) == 0 || argv[0] == "" {
		return "", ErrEmptyCommand
	}
	cmd := osexec.CommandContext(ctx, argv[0], argv[1:]...)
	if len(options.Env) > 0 {
		cmd.Env = append(os.Environ(), options.Env...)
	}
	cmd.Stdin = options.Stdin

	var stdout, stderr bytes.Buffer
	if options.Streamed {
		cmd.Stdout = r.Stdout
		cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		return stdout.String(), commandError(argv, err, stderr.String())
	}
	return stdout.String(), nil
}

func commandError(argv []string, err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if len(stderr) > maxErrorOutput {
		stderr = "..." + stderr[len(stderr)-maxErrorOutput:]
	}
	if stderr == "" {
		return ErrCommandFailed.Wrapf("%s: %w", Join(argv), err)
	}
	return ErrCommandFailed.Wrapf("%s: %w (%s)", Join(argv), err, stderr)
}

// decoratedRunner applies decorators to every command before handing it to the
// underlying runner.
type decoratedRunner struct {
	runner     Runner
	decorators []DecorateFunc
}

// Decorate returns a Runner that rewrites each command with the given decorators
// before passing it on to runner.
func Decorate(runner Runner, decorators ...DecorateFunc) Runner {
	return &decoratedRunner{runner: runner, decorators: decorators}
}

func (r *decoratedRunner) String() string { return r.runner.String() }

func (r *decoratedRunner) command(argv []string) []string {
	for _, decorator := range r.decorators {
		argv = decorator(argv)
	}
	return argv
}

func (r *decoratedRunner) Exec(ctx context.Context, argv []string, opts ...Option) error {
	return r.runner.Exec(ctx, r.command(argv), opts...)
}

func (r *decoratedRunner) ExecOutput(ctx context.Context, argv []string, opts ...Option) (string, error) {
	return r.runner.ExecOutput(ctx, r.command(argv), opts...)
}

// Package exectest provides a mock command runner for testing code that runs
// commands through exec.Runner.
package exectest

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/grandchild/auto_install/exec"
)

var _ exec.Runner = (*MockRunner)(nil)

// ErrNotReceived is returned by Received when no command matched.
var ErrNotReceived = errors.New("a matching command was not received")

// A is the struct passed to the command handling functions.
type A struct {
	// Ctx is the context passed to the command
	Ctx context.Context //nolint:containedctx
	// Argv is the command line
	Argv []string
	// Command is the command line joined into a single string
	Command string
	// Stdin is the input given to the command, if any
	Stdin string
	// Options are the exec options the command was run with
	Options *exec.Options
}

// CommandHandler is a function that handles a mocked command and returns its output.
type CommandHandler func(a *A) (string, error)

// CommandMatcher is a function that checks if a command matches a certain criteria.
type CommandMatcher func(string) bool

// HasPrefix returns a CommandMatcher that checks if a command starts with a given prefix.
func HasPrefix(prefix string) CommandMatcher {
	return func(cmd string) bool {
		return strings.HasPrefix(cmd, prefix)
	}
}

// Contains returns a CommandMatcher that checks if a command contains a given substring.
func Contains(substring string) CommandMatcher {
	return func(cmd string) bool {
		return strings.Contains(cmd, substring)
	}
}

// Equal returns a CommandMatcher that checks if a command equals a given string.
func Equal(str string) CommandMatcher {
	return func(cmd string) bool {
		return cmd == str
	}
}

// Matches returns a CommandMatcher that checks if a command matches a given regular expression.
func Matches(pattern string) CommandMatcher {
	regex := regexp.MustCompile(pattern)
	return func(cmd string) bool {
		return regex.MatchString(cmd)
	}
}

type matcher struct {
	fn      CommandMatcher
	handler CommandHandler
}

// MockRunner records every command it receives and answers with the output of the
// first matching handler. Commands without a handler succeed with empty output, or
// fail with ErrDefault if it is set.
type MockRunner struct {
	ErrDefault error

	mu       sync.Mutex
	calls    []*A
	matchers []matcher
}

// NewMockRunner creates a new mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// String returns the string representation of the runner.
func (m *MockRunner) String() string { return "mockrunner" }

// Exec records the command and runs its handler.
func (m *MockRunner) Exec(ctx context.Context, argv []string, opts ...exec.Option) error {
	_, err := m.handle(ctx, argv, opts)
	return err
}

// ExecOutput records the command and returns the output of its handler.
func (m *MockRunner) ExecOutput(ctx context.Context, argv []string, opts ...exec.Option) (string, error) {
	out, err := m.handle(ctx, argv, opts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (m *MockRunner) handle(ctx context.Context, argv []string, opts []exec.Option) (string, error) {
	options := exec.Build(opts...)
	call := &A{
		Ctx:     ctx,
		Argv:    append([]string{}, argv...),
		Command: exec.Join(argv),
		Options: options,
	}
	if options.Stdin != nil {
		input, err := io.ReadAll(options.Stdin)
		if err != nil {
			return "", err
		}
		call.Stdin = string(input)
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	matchers := append([]matcher{}, m.matchers...)
	m.mu.Unlock()

	for _, matcher := range matchers {
		if matcher.fn(call.Command) {
			return matcher.handler(call)
		}
	}
	return "", m.ErrDefault
}

// AddCommand adds a mocked command handler which is called when the matcher matches the command line.
func (m *MockRunner) AddCommand(matchFn CommandMatcher, handler CommandHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchers = append(m.matchers, matcher{fn: matchFn, handler: handler})
}

// AddCommandOutput adds a matcher for a command that succeeds with the given output.
func (m *MockRunner) AddCommandOutput(matchFn CommandMatcher, output string) {
	m.AddCommand(matchFn, func(*A) (string, error) { return output, nil })
}

// AddCommandFailure adds a matcher for a command that fails with the given error.
func (m *MockRunner) AddCommandFailure(matchFn CommandMatcher, err error) {
	m.AddCommand(matchFn, func(*A) (string, error) { return "", err })
}

// Reset clears the command history.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Received returns nil if a command matching the matcher was received.
func (m *MockRunner) Received(matchFn CommandMatcher) error {
	if m.Find(matchFn) == nil {
		return ErrNotReceived
	}
	return nil
}

// Find returns the first received call matching the matcher, or nil.
func (m *MockRunner) Find(matchFn CommandMatcher) *A {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.calls {
		if matchFn(call.Command) {
			return call
		}
	}
	return nil
}

// Len returns the number of commands received.
func (m *MockRunner) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Commands returns a copy of the command lines received.
func (m *MockRunner) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	commands := make([]string, len(m.calls))
	for i, call := range m.calls {
		commands[i] = call.Command
	}
	return commands
}

// LastCommand returns the last command received.
func (m *MockRunner) LastCommand() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1].Command
}

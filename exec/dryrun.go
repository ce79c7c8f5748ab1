package exec

import (
	"context"
	"fmt"
	"io"
)

var _ Runner = (*DryRunner)(nil)

// DryRunner prints the commands that would change the system instead of running them.
// Read-only queries are passed on to the wrapped runner so that device scanning keeps
// working.
type DryRunner struct {
	runner Runner
	out    io.Writer
}

// NewDryRunner wraps runner, printing skipped commands to out.
func NewDryRunner(runner Runner, out io.Writer) *DryRunner {
	return &DryRunner{runner: runner, out: out}
}

// String returns the runner's string representation.
func (r *DryRunner) String() string { return "dry-run " + r.runner.String() }

// Exec runs read-only commands and prints all others.
func (r *DryRunner) Exec(ctx context.Context, argv []string, opts ...Option) error {
	options := Build(opts...)
	if options.ReadOnly {
		return r.runner.Exec(ctx, argv, opts...)
	}
	r.print(argv, options)
	return nil
}

// ExecOutput runs read-only commands and prints all others, returning no output for
// them.
func (r *DryRunner) ExecOutput(ctx context.Context, argv []string, opts ...Option) (string, error) {
	options := Build(opts...)
	if options.ReadOnly {
		return r.runner.ExecOutput(ctx, argv, opts...)
	}
	r.print(argv, options)
	return "", nil
}

// print never shows the input itself, it may contain passwords.
func (r *DryRunner) print(argv []string, options *Options) {
	if options.HasInput() {
		fmt.Fprintf(r.out, "[dry-run] %s < (input)\n", Join(argv))
		return
	}
	fmt.Fprintf(r.out, "[dry-run] %s\n", Join(argv))
}

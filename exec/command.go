package exec

import (
	"github.com/alessio/shellescape"
)

// Quote returns a shell escaped string.
// This is a wrapper around shellescape.Quote and
// it is here to avoid importing shellescape separately.
func Quote(s string) string {
	return shellescape.Quote(s)
}

// Join returns the command line as a single shell escaped string, suitable for logs
// and for printing during a dry run.
//
// Example:
//
//	exec.Join([]string{"mount", "--mkdir", "/dev/sda2", "/mnt"})
//	// resulting string: mount --mkdir /dev/sda2 /mnt
func Join(argv []string) string {
	return shellescape.QuoteCommand(argv)
}

package exec

import (
	"context"
	"errors"
	"os/exec"
)

// Commander provides an interface for command execution that can be mocked in tests.
type Commander interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// DefaultCommander implements Commander using the standard exec.CommandContext.
type DefaultCommander struct{}

// CommandContext creates a new exec.Cmd bound to ctx.
func (DefaultCommander) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// Default is the process-wide Commander. Tests can override it.
var Default Commander = DefaultCommander{}

// ExitCode runs cmd and reports its exit status. A process that could not be
// started (missing binary, bad working directory) yields -1 and the start error.
// A process that ran and exited non-zero yields its code and a nil error.
func ExitCode(cmd *exec.Cmd) (int, error) {
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// LookPath is exec.LookPath, re-exported so callers need only this package.
func LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

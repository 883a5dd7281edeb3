// Package fakeexec provides a recording Commander for tests. Faked commands
// re-execute the test binary, which must route to HelperMain through a
// TestHelperProcess function:
//
//	func TestHelperProcess(t *testing.T) { fakeexec.HelperMain() }
package fakeexec

import (
	"context"
	"encoding/base64"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
)

// Response scripts what a faked command prints and how it exits.
type Response struct {
	Stdout   string
	ExitCode int
	// NotFound makes the command fail to start, as a missing binary would.
	NotFound bool
}

// Call is one recorded command. Cmd is the created process, so fields the
// caller sets afterwards (Dir, Stdout) can be inspected once it ran.
type Call struct {
	Name string
	Args []string
	Cmd  *exec.Cmd
}

// Commander records every command it creates.
type Commander struct {
	// Respond picks the response for a command; nil means exit 0, no output.
	Respond func(name string, args []string) Response
	// OnCall runs synchronously each time a command is created.
	OnCall func(Call)

	mu    sync.Mutex
	calls []Call
}

// CommandContext implements exec.Commander.
func (c *Commander) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	var resp Response
	if c.Respond != nil {
		resp = c.Respond(name, args)
	}

	var cmd *exec.Cmd
	if resp.NotFound {
		cmd = exec.CommandContext(ctx, filepath.Join(os.TempDir(), "etlrun-fakeexec-missing", name))
	} else {
		helperArgs := append([]string{"-test.run=^TestHelperProcess$", "--", name}, args...)
		cmd = exec.CommandContext(ctx, os.Args[0], helperArgs...)
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"HELPER_EXIT_CODE="+strconv.Itoa(resp.ExitCode),
			// Encoded so scripted output may hold NUL bytes.
			"HELPER_STDOUT="+base64.StdEncoding.EncodeToString([]byte(resp.Stdout)),
		)
	}

	call := Call{Name: name, Args: append([]string(nil), args...), Cmd: cmd}
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
	if c.OnCall != nil {
		c.OnCall(call)
	}
	return cmd
}

// Calls returns a snapshot of the recorded commands.
func (c *Commander) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// HelperMain plays back the scripted response inside the re-executed test
// binary. It returns immediately in the normal test process.
func HelperMain() {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	out, _ := base64.StdEncoding.DecodeString(os.Getenv("HELPER_STDOUT"))
	os.Stdout.Write(out)
	code, _ := strconv.Atoi(os.Getenv("HELPER_EXIT_CODE"))
	os.Exit(code)
}

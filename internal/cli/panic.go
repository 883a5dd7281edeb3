package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"etlrun/pkg/terminal"
	"etlrun/pkg/version"
)

// PanicHandler recovers from panics and shows friendly errors
type PanicHandler struct {
	// Out defaults to stderr.
	Out io.Writer
	// CrashDir defaults to $HOME/.etlrun/crashes.
	CrashDir string
	exit     func(int)
}

// Recover catches panics and converts them to friendly output.
// It must be deferred directly.
func (p *PanicHandler) Recover() { //nolint:revive
	if r := recover(); r != nil {
		p.handlePanic(r)
	}
}

func (p *PanicHandler) handlePanic(r interface{}) {
	var message string
	switch v := r.(type) {
	case string:
		message = v
	case error:
		message = v.Error()
	default:
		message = fmt.Sprintf("%v", r)
	}

	out := p.Out
	if out == nil {
		out = os.Stderr
	}
	crashReport := p.saveCrashReport(message, string(debug.Stack()))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "💥 %s%setlrun crashed unexpectedly%s\n", terminal.Red, terminal.Bold, terminal.Reset)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Error: %s\n", message)
	fmt.Fprintln(out)
	if crashReport != "" {
		fmt.Fprintf(out, "A crash report has been saved to:\n%s\n", crashReport)
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "Please send the crash report to the ETL maintainers with what you were doing when this happened.")

	exit := p.exit
	if exit == nil {
		exit = os.Exit
	}
	exit(2)
}

func (p *PanicHandler) saveCrashReport(message, stack string) string {
	crashDir := p.CrashDir
	if crashDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		crashDir = filepath.Join(home, ".etlrun", "crashes")
	}
	if err := os.MkdirAll(crashDir, 0o755); err != nil {
		return ""
	}
	ts := time.Now().Format("2006-01-02-15-04-05")
	fp := filepath.Join(crashDir, fmt.Sprintf("crash-%s.txt", ts))
	report := fmt.Sprintf(`etlrun Crash Report
===================
Time: %s
Version: %s
OS: %s
Arch: %s

Error:
%s

Stack Trace:
%s

Environment:
%s
`, time.Now().Format(time.RFC3339), version.String(), runtime.GOOS, runtime.GOARCH, message, stack, p.getEnvironmentInfo())
	if err := os.WriteFile(fp, []byte(report), 0o644); err != nil {
		return ""
	}
	return fp
}

func (p *PanicHandler) getEnvironmentInfo() string {
	var info []string
	for _, key := range []string{"ETLRUN_HOME", "ETLRUN_PYTHON", "ETLRUN_DEBUG", "VIRTUAL_ENV", "PATH"} {
		if v := os.Getenv(key); v != "" {
			info = append(info, fmt.Sprintf("%s=%s", key, v))
		}
	}
	return strings.Join(info, "\n")
}

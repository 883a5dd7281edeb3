// Package provision installs the ETL project's Python dependencies.
//
// Both steps are best-effort: their output is discarded and a non-zero exit
// does not stop the launch. Installer warnings are common and rarely fatal,
// and the ETL script reports missing packages itself.
package provision

import (
	"context"
	"time"

	pexec "etlrun/pkg/exec"
	"etlrun/pkg/logger"
)

// Outcome is the result of one installer invocation.
type Outcome struct {
	Command  []string      `json:"command"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	// StartErr is set when the installer could not be started at all.
	StartErr error `json:"-"`
}

// OK reports whether the installer ran and exited zero.
func (o Outcome) OK() bool { return o.StartErr == nil && o.ExitCode == 0 }

// Installer drives pip through the configured interpreter.
type Installer struct {
	Commander pexec.Commander
	Python    string
	// Dir is the working directory of the installer processes.
	Dir string
}

// New returns an Installer using the default Commander.
func New(python, dir string) *Installer {
	return &Installer{Commander: pexec.Default, Python: python, Dir: dir}
}

// UpgradeInstaller runs `python -m pip install --upgrade pip`.
func (i *Installer) UpgradeInstaller(ctx context.Context) Outcome {
	return i.run(ctx, "-m", "pip", "install", "--upgrade", "pip")
}

// InstallManifest runs `python -m pip install -r manifest`. It runs even
// when the manifest is missing; pip's complaint is discarded with the rest.
func (i *Installer) InstallManifest(ctx context.Context, manifest string) Outcome {
	return i.run(ctx, "-m", "pip", "install", "-r", manifest)
}

func (i *Installer) run(ctx context.Context, args ...string) Outcome {
	out := Outcome{Command: append([]string{i.Python}, args...)}
	cmd := i.Commander.CommandContext(ctx, i.Python, args...)
	cmd.Dir = i.Dir
	cmd.Stdout = nil
	cmd.Stderr = nil

	start := time.Now()
	out.ExitCode, out.StartErr = pexec.ExitCode(cmd)
	out.Duration = time.Since(start)

	line := pexec.JoinArgs(out.Command)
	switch {
	case out.StartErr != nil:
		logger.Verbosef("%s could not start: %v", line, out.StartErr)
	case out.ExitCode != 0:
		logger.Verbosef("%s exited %d (ignored)", line, out.ExitCode)
	default:
		logger.Debugf("%s ok in %v", line, out.Duration.Round(time.Millisecond))
	}
	return out
}

// Package venv activates a Python virtual environment for the launcher.
//
// An activation script only changes the environment of the shell that runs
// it, so the activator runs the script in a child shell, dumps the resulting
// environment, and applies the difference to its own process. Commands the
// launcher starts afterwards inherit it, exactly as if the script had been
// called from the launching console.
package venv

import (
	"context"
	"fmt"

	"etlrun/internal/detector"
	pexec "etlrun/pkg/exec"
	"etlrun/pkg/logger"
)

// Method records how an activation was carried out.
type Method string

const (
	MethodNone   Method = "none"   // no artifact; the interpreter on PATH is used
	MethodScript Method = "script" // the artifact ran and its environment was captured
	MethodLayout Method = "layout" // capture failed; the environment was derived from the layout
)

// Result describes one activation.
type Result struct {
	Artifact string  `json:"artifact,omitempty"`
	Method   Method  `json:"method"`
	Changes  Changes `json:"changes"`
	// CaptureErr is why the script capture failed when Method is MethodLayout.
	CaptureErr error `json:"-"`
}

// Activator runs activation artifacts.
type Activator struct {
	Commander pexec.Commander
	Env       Environ
}

// New returns an Activator that mutates the process environment.
func New() *Activator {
	return &Activator{Commander: pexec.Default, Env: ProcessEnv{}}
}

// Activate applies the artifact's environment. kind ActivationNone is a
// no-op. A script that cannot be run or captured falls back to the layout
// activation; only a failure to apply the changes is returned as an error.
func (a *Activator) Activate(ctx context.Context, artifact string, kind detector.ActivationKind) (*Result, error) {
	res := &Result{Artifact: artifact, Method: MethodNone}
	if kind == detector.ActivationNone {
		return res, nil
	}

	fold := kind == detector.ActivationBatch
	before := EnvMap(a.Env.Environ())

	after, err := a.capture(ctx, artifact, kind)
	if err != nil {
		logger.Verbosef("activation capture failed, using layout: %v", err)
		res.Method = MethodLayout
		res.CaptureErr = err
		res.Changes = LayoutChanges(artifact, before, fold)
	} else {
		res.Method = MethodScript
		res.Changes = Diff(before, after, fold)
	}

	if err := res.Changes.Apply(a.Env); err != nil {
		return res, fmt.Errorf("apply activation: %w", err)
	}
	logger.Debugf("activation %s: %d set, %d unset", res.Method, len(res.Changes.Set), len(res.Changes.Unset))
	return res, nil
}

// capture runs the artifact in a child shell and parses the environment it
// leaves behind.
func (a *Activator) capture(ctx context.Context, artifact string, kind detector.ActivationKind) (map[string]string, error) {
	name, args := CaptureCommand(artifact, kind)
	cmd := a.Commander.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pexec.JoinArgs(append([]string{name}, args...)), err)
	}
	vars := ParseEnvDump(string(out))
	if len(vars) == 0 {
		return nil, fmt.Errorf("activation printed no environment")
	}
	return vars, nil
}

// CaptureCommand returns the command that runs artifact and prints the
// resulting environment. Batch artifacts go through cmd.exe with the UTF-8
// code page selected so non-ASCII values survive; anything else is sourced
// by sh, with the path passed as $1 to avoid quoting, and dumped
// NUL-separated.
func CaptureCommand(artifact string, kind detector.ActivationKind) (string, []string) {
	if kind == detector.ActivationBatch {
		return "cmd", []string{"/d", "/c", "chcp", "65001", ">nul", "&", "call", artifact, ">nul", "&&", "set"}
	}
	return "sh", []string{"-c", `. "$1" >/dev/null 2>&1 && env -0`, "etlrun-activate", artifact}
}

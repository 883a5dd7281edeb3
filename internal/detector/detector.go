// Package detector resolves the on-disk layout of an ETL project: the
// launcher's base folder, the optional virtual environment activation
// artifact, the requirements manifest, the ETL entry point and the data
// folders. Every path is resolved against the base folder so the launcher
// behaves the same wherever it is started from.
package detector

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"etlrun/internal/config"
)

// ActivationKind tells how an activation artifact must be executed.
type ActivationKind string

const (
	ActivationNone  ActivationKind = "none"
	ActivationBatch ActivationKind = "batch" // activate.bat / activate.cmd via cmd.exe
	ActivationShell ActivationKind = "shell" // bin/activate sourced by sh
)

// Path is a resolved project path and whether it exists.
type Path struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// Layout describes a project folder.
type Layout struct {
	Base         string         `json:"base"`
	Activation   Path           `json:"activation"`
	Kind         ActivationKind `json:"activation_kind"`
	Requirements Path           `json:"requirements"`
	Script       Path           `json:"script"`
	InputFolder  Path           `json:"input_folder"`
	OutputFolder Path           `json:"output_folder"`
}

// Detect resolves cfg's paths against base.
func Detect(base string, cfg *config.Config) (*Layout, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	l := &Layout{
		Base:         abs,
		Activation:   resolve(abs, cfg.VenvActivate),
		Requirements: resolve(abs, cfg.Requirements),
		Script:       resolve(abs, cfg.Script),
		InputFolder:  resolve(abs, cfg.InputFolder),
		OutputFolder: resolve(abs, cfg.OutputFolder),
	}
	l.Kind = ActivationNone
	if l.Activation.Exists {
		l.Kind = KindOf(l.Activation.Path)
	}
	return l, nil
}

// KindOf classifies an activation artifact by its extension.
func KindOf(artifact string) ActivationKind {
	switch strings.ToLower(filepath.Ext(artifact)) {
	case ".bat", ".cmd":
		return ActivationBatch
	default:
		return ActivationShell
	}
}

// VenvRoot returns the virtual environment folder owning an activation
// artifact (the parent of Scripts/ or bin/).
func VenvRoot(artifact string) string {
	return filepath.Dir(filepath.Dir(artifact))
}

// VenvPython returns the interpreter installed next to an activation
// artifact.
func VenvPython(artifact string) string {
	name := "python"
	if runtime.GOOS == "windows" {
		name = "python.exe"
	}
	return filepath.Join(filepath.Dir(artifact), name)
}

// BaseDir returns the launcher's own folder. override wins when set, then
// ETLRUN_HOME, then the directory of the running executable with symlinks
// resolved.
func BaseDir(override string) (string, error) {
	if override == "" {
		override = os.Getenv("ETLRUN_HOME")
	}
	if override != "" {
		return filepath.Abs(override)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func resolve(base, p string) Path {
	if p == "" {
		return Path{}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return Path{Path: filepath.Clean(p), Exists: exists(p)}
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

package commands

import (
	"fmt"
	"os"

	"etlrun/internal/config"
	"etlrun/internal/detector"
	"etlrun/internal/doctor"
	"etlrun/internal/provision"
	e "etlrun/pkg/errors"
	"etlrun/pkg/terminal"
)

// Setup prepares a project folder for its first launch: it writes a default
// etlrun.yaml, creates the input and output folders, creates the virtual
// environment and installs the requirements into it. Unlike a launch, setup
// reports installer failures.
// Supports flags: --force, --no-venv, --no-install
func Setup(app *App, args []string) error {
	fs := newFlagSet("setup", app.Stderr)
	force := fs.Bool("force", false, "overwrite an existing "+config.FileName)
	noVenv := fs.Bool("no-venv", false, "do not create a virtual environment")
	noInstall := fs.Bool("no-install", false, "do not install requirements")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	out := app.Stdout
	fmt.Fprintln(out, "=== etlrun setup ===")

	cfgPath := config.Path(app.Base)
	if _, err := os.Stat(cfgPath); err == nil && !*force {
		fmt.Fprintf(out, "%s %s already exists (use --force to overwrite)\n", terminal.IconInfo, cfgPath)
	} else {
		if err := config.Save(app.Base, config.Default()); err != nil {
			return e.Wrap(err, e.ErrPermissionDenied, "Cannot write configuration").WithContext("path", cfgPath)
		}
		fmt.Fprintf(out, "%s Wrote %s\n", terminal.IconSuccess, cfgPath)
	}

	layout, err := app.layout()
	if err != nil {
		return err
	}
	for _, dir := range []string{layout.InputFolder.Path, layout.OutputFolder.Path} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return e.Wrap(err, e.ErrPermissionDenied, "Cannot create folder").WithContext("path", dir)
		}
		fmt.Fprintf(out, "%s Folder %s\n", terminal.IconSuccess, dir)
	}

	python := app.Config.Python
	artifact := layout.Activation.Path
	if artifact != "" && !*noVenv {
		root := detector.VenvRoot(artifact)
		if layout.Activation.Exists {
			fmt.Fprintf(out, "%s Virtual environment %s already exists\n", terminal.IconInfo, root)
		} else {
			fmt.Fprintf(out, "%s Creating virtual environment %s\n", terminal.IconPython, root)
			if err := doctor.CreateVenv(app.context(), app.Commander, python, layout.Base, root); err != nil {
				return e.Wrap(err, e.ErrVenvCreateFailed, "Failed to create the virtual environment").
					WithContext("python", python).
					WithContext("venv", root)
			}
		}
		if vp := detector.VenvPython(artifact); fileExists(vp) {
			python = vp
		}
	}

	if *noInstall {
		fmt.Fprintln(out, terminal.Success("Setup complete."))
		return nil
	}

	fmt.Fprintf(out, "%s Installing requirements with %s\n", terminal.IconBox, python)
	inst := provision.New(python, layout.Base)
	inst.Commander = app.Commander
	failed := false
	for _, o := range []provision.Outcome{
		inst.UpgradeInstaller(app.context()),
		inst.InstallManifest(app.context(), layout.Requirements.Path),
	} {
		if !o.OK() {
			failed = true
			fmt.Fprintf(out, "%s %v exited %d\n", terminal.IconWarning, o.Command, o.ExitCode)
		}
	}
	if failed {
		fmt.Fprintln(out, terminal.Warning("Setup finished with installer warnings; run with --verbose or install manually."))
		return nil
	}
	fmt.Fprintln(out, terminal.Success("Setup complete."))
	return nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

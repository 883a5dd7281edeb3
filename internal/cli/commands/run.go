package commands

import (
	"fmt"

	"etlrun/internal/launcher"
	"etlrun/pkg/logger"
)

// Run performs the launch: activate the virtual environment when present,
// install dependencies, run the ETL script, print the completion banner and
// wait for a keypress. It is the default when etlrun gets no command.
// Supports flags: --no-pause, --strict, --skip-unchanged, --python
func Run(app *App, args []string) error {
	cfg := app.Config
	fs := newFlagSet("run", app.Stderr)
	noPause := fs.Bool("no-pause", !cfg.Pause, "do not wait for a keypress at the end")
	strict := fs.Bool("strict", cfg.StrictExit, "exit with the ETL script's exit code")
	skip := fs.Bool("skip-unchanged", cfg.SkipUnchangedInstall, "skip the requirements install when they did not change")
	python := fs.String("python", cfg.Python, "Python interpreter to use")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	layout, err := app.layout()
	if err != nil {
		return err
	}
	if !layout.Script.Exists {
		logger.Warnf("ETL script not found: %s", layout.Script.Path)
	}

	seq := launcher.New(launcher.Options{
		Layout:               layout,
		Python:               *python,
		Pause:                !*noPause,
		Strict:               *strict,
		SkipUnchangedInstall: *skip,
	},
		launcher.WithCommander(app.Commander),
		launcher.WithIO(app.Stdin, app.Stdout, app.Stderr),
	)
	res, err := seq.Run(app.context())
	logger.Verbosef("Run %s finished in %v, ETL exit code %d", res.RunID, res.Duration, res.ScriptExitCode)
	return err
}

package commands

import (
	"etlrun/internal/doctor"
	"etlrun/pkg/logger"
)

// Doctor runs project health checks and diagnostics.
// Supports flags: -v, --fix. The global --verbose also shows details.
func Doctor(app *App, args []string) error {
	fs := newFlagSet("doctor", app.Stderr)
	verbose := fs.BoolP("verbose", "v", false, "show check details")
	fix := fs.Bool("fix", false, "create missing folders and the virtual environment")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	layout, err := app.layout()
	if err != nil {
		return err
	}
	m, err := app.matcher()
	if err != nil {
		return err
	}
	details := *verbose || logger.Enabled(logger.LevelVerbose)
	d := doctor.New(app.Stdout, details, doctor.Checks(layout, app.Config.Python, m, app.Commander)...)
	_ = d.Run()
	if *fix {
		d.Fix()
	}
	return nil
}

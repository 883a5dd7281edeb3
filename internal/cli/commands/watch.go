package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"etlrun/internal/launcher"
	"etlrun/internal/venv"
	"etlrun/internal/watch"
	"etlrun/pkg/logger"
	"etlrun/pkg/terminal"
)

// Watch reruns the ETL script whenever input files are added or changed.
// The virtual environment is activated once at start; dependencies are not
// reinstalled and there is no pause between runs. Stops on Ctrl+C.
// Supports flags: --debounce, --python
func Watch(app *App, args []string) error {
	fs := newFlagSet("watch", app.Stderr)
	debounce := fs.Duration("debounce", app.debounce(), "quiet period before a run")
	python := fs.String("python", app.Config.Python, "Python interpreter to use")
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

	ctx, stop := signal.NotifyContext(app.context(), os.Interrupt)
	defer stop()
	if layout.Activation.Exists {
		a := &venv.Activator{Commander: app.Commander, Env: venv.ProcessEnv{}}
		if _, err := a.Activate(ctx, layout.Activation.Path, layout.Kind); err != nil {
			logger.Warnf("virtual environment activation failed: %v", err)
		}
	}

	seq := launcher.New(launcher.Options{Layout: layout, Python: *python},
		launcher.WithCommander(app.Commander),
		launcher.WithIO(app.Stdin, app.Stdout, app.Stderr),
	)
	w := watch.New(layout.InputFolder.Path, m, *debounce, func(ctx context.Context, changed []string) {
		names := make([]string, len(changed))
		for i, c := range changed {
			names[i] = filepath.Base(c)
		}
		fmt.Fprintf(app.Stdout, "\n%s %s %v\n", terminal.IconArrow, time.Now().Format("15:04:05"), names)
		sr := seq.RunScript(ctx)
		seq.Announce()
		logger.Verbosef("ETL exit code %d after %v", sr.ExitCode, sr.Duration.Round(time.Millisecond))
	})

	fmt.Fprintf(app.Stdout, "%s Watching %s for %v. Press Ctrl+C to stop.\n", terminal.IconWatch, layout.InputFolder.Path, m.Patterns())
	if err := w.Watch(ctx); err != nil {
		return err
	}
	fmt.Fprintf(app.Stdout, "Stopped after %d run(s).\n", w.Runs())
	return nil
}

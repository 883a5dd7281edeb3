package commands

import (
	"fmt"
	"time"

	"etlrun/internal/cache"
)

// Cache manages the install stamp (status, clear).
func Cache(app *App, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(app.Stdout, "Usage: etlrun cache [status|clear]")
		return fmt.Errorf("no cache subcommand specified")
	}
	store := cache.NewStampStore(app.Base)
	switch args[0] {
	case "status":
		return showStampStatus(app, store)
	case "clear":
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear install stamp: %w", err)
		}
		fmt.Fprintln(app.Stdout, "Install stamp cleared; the next launch reinstalls requirements.")
		return nil
	default:
		fmt.Fprintln(app.Stdout, "Usage: etlrun cache [status|clear]")
		return fmt.Errorf("unknown cache subcommand: %s", args[0])
	}
}

func showStampStatus(app *App, store *cache.StampStore) error {
	st, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to read install stamp: %w", err)
	}
	if st == nil {
		fmt.Fprintln(app.Stdout, "No install recorded.")
		return nil
	}
	fmt.Fprintf(app.Stdout, "Stamp:       %s\n", store.Path())
	fmt.Fprintf(app.Stdout, "Installed:   %s\n", st.InstalledAt.Format(time.RFC3339))
	fmt.Fprintf(app.Stdout, "Interpreter: %s\n", st.Interpreter)
	if st.Venv != "" {
		fmt.Fprintf(app.Stdout, "Venv:        %s\n", st.Venv)
	}
	fmt.Fprintf(app.Stdout, "Manifest:    %s:%s\n", st.Algorithm, st.ManifestHash)
	fmt.Fprintf(app.Stdout, "Run:         %s\n", st.RunID)
	return nil
}

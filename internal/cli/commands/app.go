// Package commands implements the etlrun subcommands. Each command is a
// function taking the shared App and its own arguments; flags are parsed
// per command with pflag.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"etlrun/internal/config"
	"etlrun/internal/detector"
	"etlrun/internal/inputs"
	e "etlrun/pkg/errors"
	pexec "etlrun/pkg/exec"
)

// App carries what every command needs.
type App struct {
	Ctx       context.Context
	Config    *config.Config
	Base      string
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Commander pexec.Commander
}

// NewApp returns an App bound to the process console.
func NewApp(ctx context.Context, cfg *config.Config, base string) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	return &App{
		Ctx:       ctx,
		Config:    cfg,
		Base:      base,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Commander: pexec.Default,
	}
}

func (a *App) context() context.Context {
	if a.Ctx == nil {
		return context.Background()
	}
	return a.Ctx
}

func (a *App) layout() (*detector.Layout, error) {
	l, err := detector.Detect(a.Base, a.Config)
	if err != nil {
		return nil, e.Wrap(err, e.ErrBaseDirUnresolved, "Cannot resolve the project folder").
			WithContext("base", a.Base)
	}
	return l, nil
}

func (a *App) matcher() (*inputs.Matcher, error) {
	m, err := inputs.NewMatcher(a.Config.InputPatterns)
	if err != nil {
		return nil, e.Wrap(err, e.ErrInvalidConfig, "Invalid input_patterns").
			WithSuggestion("Fix input_patterns in " + config.FileName)
	}
	return m, nil
}

func (a *App) debounce() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(a.Config.WatchDebounce))
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// newFlagSet returns a quiet FlagSet; parse errors are returned, not printed.
func newFlagSet(name string, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: etlrun %s [flags]\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args, mapping --help to a nil error with help shown.
func parseFlags(fs *pflag.FlagSet, args []string) (help bool, err error) {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return true, nil
		}
		return false, e.Wrap(err, e.ErrInvalidUsage, fmt.Sprintf("Invalid arguments for '%s'", fs.Name())).
			WithSuggestion(fmt.Sprintf("Run 'etlrun %s --help'", fs.Name()))
	}
	return false, nil
}

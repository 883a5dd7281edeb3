package main

import (
	"context"
	"os"
	"strings"

	"etlrun/internal/cli"
	"etlrun/internal/cli/commands"
	"etlrun/internal/config"
	"etlrun/internal/detector"
	e "etlrun/pkg/errors"
	"etlrun/pkg/logger"
)

// globalFlags are parsed before command dispatch and stripped from args.
type globalFlags struct {
	verbose bool
	debug   bool
	dir     string
}

// parseGlobalFlags extracts --verbose, --debug and --dir from args and
// applies the ETLRUN_VERBOSE / ETLRUN_DEBUG overrides.
func parseGlobalFlags(argv []string, getenv func(string) string) (globalFlags, []string) {
	var g globalFlags
	args := make([]string, 0, len(argv))
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		if i == 0 {
			args = append(args, a)
			continue
		}
		switch {
		case a == "--verbose":
			g.verbose = true
		case a == "--debug":
			g.debug = true
		case a == "--dir" && i+1 < len(argv):
			g.dir = argv[i+1]
			i++
		case strings.HasPrefix(a, "--dir="):
			g.dir = strings.TrimPrefix(a, "--dir=")
		default:
			args = append(args, a)
		}
	}
	if envTrue(getenv("ETLRUN_VERBOSE")) {
		g.verbose = true
	}
	if envTrue(getenv("ETLRUN_DEBUG")) {
		g.debug = true
	}
	return g, args
}

func envTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func main() {
	g, args := parseGlobalFlags(os.Args, os.Getenv)

	logger.Initialize(g.verbose, g.debug)
	defer logger.Close()

	handler := cli.NewErrorHandler(g.verbose, g.debug)
	var ph cli.PanicHandler
	defer ph.Recover()

	base, err := detector.BaseDir(g.dir)
	if err != nil {
		handler.Handle(e.Wrap(err, e.ErrBaseDirUnresolved, "Cannot locate the launcher folder"))
		return
	}
	cfg, err := config.Load(base)
	if err != nil {
		// Defaults still apply; a broken config must not block the launch.
		logger.Warnf("%v (using defaults)", err)
	}
	logger.Debugf("base folder %s", base)

	app := cli.New(commands.NewApp(context.Background(), cfg, base))
	if err := app.Run(args); err != nil {
		handler.Handle(err)
	}
}

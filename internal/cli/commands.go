package cli

import (
	"etlrun/internal/cli/commands"
)

// appCmd adapts a command function to the Command interface.
type appCmd struct {
	name, description string
	app               *commands.App
	run               func(*commands.App, []string) error
}

func (c appCmd) Name() string            { return c.name }
func (c appCmd) Description() string     { return c.description }
func (c appCmd) Run(args []string) error { return c.run(c.app, args) }

// Command factory functions
func NewRunCommand(app *commands.App) Command {
	return appCmd{"run", "Install dependencies and run the ETL (default)", app, commands.Run}
}

func NewDoctorCommand(app *commands.App) Command {
	return appCmd{"doctor", "Project health check", app, commands.Doctor}
}

func NewSetupCommand(app *commands.App) Command {
	return appCmd{"setup", "Create config, folders and virtual environment", app, commands.Setup}
}

func NewDigestCommand(app *commands.App) Command {
	return appCmd{"digest", "Show the requirements digest", app, commands.Digest}
}

func NewCacheCommand(app *commands.App) Command {
	return appCmd{"cache", "Install stamp management", app, commands.Cache}
}

func NewWatchCommand(app *commands.App) Command {
	return appCmd{"watch", "Rerun the ETL when input files change", app, commands.Watch}
}

func NewCompletionCommand(app *commands.App) Command {
	return appCmd{"completion", "Generate shell completion scripts", app, commands.Completion}
}

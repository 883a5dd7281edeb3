// Package cli provides the command-line interface for etlrun.
// It implements a small command registry with help text and version
// information, and routes execution based on user input.
//
// The main components are:
//   - CLI: handles command routing and execution
//   - Command: interface that all commands implement
//   - Command registry: maps command names to their implementations
//
// Commands are implemented in the commands subpackage and registered
// during CLI initialization. Without a command, etlrun performs a launch,
// so double-clicking the executable behaves like the classic batch file.
package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"etlrun/internal/cli/commands"
	"etlrun/pkg/version"
)

// DefaultCommand runs when no command is given.
const DefaultCommand = "run"

// Command represents a CLI command
type Command interface {
	Name() string
	Description() string
	Run(args []string) error
}

// CLI represents the command-line interface
type CLI struct {
	app      *commands.App
	commands map[string]Command
}

// New creates a new CLI instance
func New(app *commands.App) *CLI {
	c := &CLI{app: app, commands: make(map[string]Command)}
	c.registerCommands()
	return c
}

func (c *CLI) register(cmd Command) {
	c.commands[cmd.Name()] = cmd
}

// registerCommands registers all available commands
func (c *CLI) registerCommands() {
	c.register(NewRunCommand(c.app))
	c.register(NewDoctorCommand(c.app))
	c.register(NewSetupCommand(c.app))
	c.register(NewDigestCommand(c.app))
	c.register(NewCacheCommand(c.app))
	c.register(NewWatchCommand(c.app))
	c.register(NewCompletionCommand(c.app))
}

// Run executes the CLI with given arguments. args[0] is the program name.
// With no command, or with only flags, the default command runs.
func (c *CLI) Run(args []string) error {
	if len(args) < 2 || (strings.HasPrefix(args[1], "-") && !isHelpOrVersion(args[1])) {
		return c.commands[DefaultCommand].Run(tail(args))
	}
	switch args[1] {
	case "help", "--help", "-h":
		c.printUsage()
		return nil
	case "version", "--version":
		fmt.Fprintf(c.out(), "etlrun %s\n", version.String())
		return nil
	default:
		if cmd, ok := c.commands[args[1]]; ok {
			return cmd.Run(args[2:])
		}
		c.printUsage()
		return fmt.Errorf("unknown command: %s", args[1])
	}
}

func isHelpOrVersion(a string) bool {
	switch a {
	case "--help", "-h", "--version":
		return true
	}
	return false
}

func tail(args []string) []string {
	if len(args) < 2 {
		return nil
	}
	return args[1:]
}

func (c *CLI) out() io.Writer { return c.app.Stdout }

func (c *CLI) printUsage() {
	w := c.out()
	fmt.Fprintln(w, "Usage: etlrun [--verbose] [--debug] [--dir <folder>] [command] [args]")
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, c.commands[name].Description())
	}
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  help       Show this help")
	fmt.Fprintf(w, "Without a command, etlrun runs '%s'.\n", DefaultCommand)
}

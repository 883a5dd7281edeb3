// Package terminal provides console output utilities: colors, icons,
// banners and the end-of-run keypress pause.
package terminal

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Color codes for terminal output
const (
	Reset  = "\033[0m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Bold   = "\033[1m"
)

// IsTerminal checks if stdout is a terminal
func IsTerminal() bool {
	return IsTerminalWriter(os.Stdout)
}

// IsTerminalWriter reports whether w is a file attached to a terminal.
func IsTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Colorize returns text with color codes if stdout supports it
func Colorize(color, text string) string {
	if !IsTerminal() || os.Getenv("NO_COLOR") != "" {
		return text
	}
	return fmt.Sprintf("%s%s%s", color, text, Reset)
}

// Success returns green text
func Success(text string) string {
	return Colorize(Green, text)
}

// Error returns red text
func Error(text string) string {
	return Colorize(Red, text)
}

// Warning returns yellow text
func Warning(text string) string {
	return Colorize(Yellow, text)
}

// Info returns cyan text
func Info(text string) string {
	return Colorize(Cyan, text)
}

// BoldText returns bold text
func BoldText(text string) string {
	return Colorize(Bold, text)
}

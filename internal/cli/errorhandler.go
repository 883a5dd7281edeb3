// Package cli: Central error handling for CLI
// Provides consistent error presentation, suggestions and exit codes
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	e "etlrun/pkg/errors"
	"etlrun/pkg/logger"
	"etlrun/pkg/terminal"
)

// ErrorHandler handles errors consistently across the CLI
type ErrorHandler struct {
	verbose bool
	debug   bool
	out     io.Writer
	exit    func(int)
}

// NewErrorHandler creates an error handler
func NewErrorHandler(verbose, debug bool) *ErrorHandler {
	return &ErrorHandler{
		verbose: verbose,
		debug:   debug,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// Handle processes an error, displays it and exits with its exit code.
// A failed ETL script in strict mode, and any error already reported before
// the pause, is not displayed again.
func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	var launchErr *e.LaunchError
	if !errors.As(err, &launchErr) {
		launchErr = e.Wrap(err, e.ErrUnknown, "An unexpected error occurred")
	}
	if launchErr.Code == e.ErrScriptFailed || launchErr.Reported {
		logger.Verbose(launchErr.Message)
	} else {
		h.displayLaunchError(launchErr)
	}
	h.exit(e.ExitCode(err))
}

func (h *ErrorHandler) displayLaunchError(err *e.LaunchError) {
	w := h.out
	fmt.Fprintln(w)
	icon := h.getErrorIcon(err.Code)
	fmt.Fprintf(w, "%s %s%s%s\n", icon, terminal.Bold, err.Message, terminal.Reset)

	if err.Details != "" && h.verbose {
		fmt.Fprintf(w, "\n%s%s%s\n", terminal.Dim, err.Details, terminal.Reset)
	}

	if len(err.Context) > 0 && h.verbose {
		fmt.Fprintln(w, "\nContext:")
		keys := make([]string, 0, len(err.Context))
		for k := range err.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, err.Context[k])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(w, "\n💡 %s%s%s\n", terminal.Yellow, err.Suggestion, terminal.Reset)
	}

	if err.Cause != nil && h.verbose {
		fmt.Fprintf(w, "\n%sCaused by:%s\n", terminal.Dim, terminal.Reset)
		h.displayCauseChain(err.Cause, 1)
	}

	if h.debug && len(err.Stack) > 0 {
		fmt.Fprintf(w, "\n%sStack trace:%s\n", terminal.Dim, terminal.Reset)
		for _, f := range err.Stack {
			fmt.Fprintf(w, "  %s\n", h.formatStackFrame(f))
		}
	}

	fmt.Fprintln(w)
	if !h.verbose {
		fmt.Fprintf(w, "%sRun with --verbose for more details%s\n", terminal.Dim, terminal.Reset)
	}
	if !h.debug && err.Code == e.ErrUnknown {
		fmt.Fprintf(w, "%sRun with --debug for stack trace%s\n", terminal.Dim, terminal.Reset)
	}
}

func (h *ErrorHandler) displayCauseChain(err error, depth int) {
	indent := strings.Repeat("  ", depth)
	if launchErr, ok := err.(*e.LaunchError); ok {
		fmt.Fprintf(h.out, "%s%s %s\n", indent, terminal.IconDot, launchErr.Message)
		if launchErr.Cause != nil {
			h.displayCauseChain(launchErr.Cause, depth+1)
		}
		return
	}
	fmt.Fprintf(h.out, "%s%s %s\n", indent, terminal.IconDot, err.Error())
	if next := errors.Unwrap(err); next != nil {
		h.displayCauseChain(next, depth+1)
	}
}

func (h *ErrorHandler) formatStackFrame(frame e.StackFrame) string {
	file := frame.File
	if idx := strings.LastIndex(file, "/etlrun/"); idx >= 0 {
		file = "..." + file[idx:]
	}
	fn := frame.Function
	if idx := strings.LastIndex(fn, "."); idx >= 0 {
		fn = fn[idx+1:]
	}
	return fmt.Sprintf("%s:%d %s()", file, frame.Line, fn)
}

func (h *ErrorHandler) getErrorIcon(code e.ErrorCode) string {
	icons := map[e.ErrorCode]string{
		e.ErrInterpreterNotFound: "🐍",
		e.ErrActivationFailed:    "🔌",
		e.ErrVenvCreateFailed:    "📦",
		e.ErrScriptNotFound:      "📄",
		e.ErrBaseDirUnresolved:   "📁",
		e.ErrFileNotFound:        "🔍",
		e.ErrPermissionDenied:    "🚫",
		e.ErrWatchFailed:         "👀",
		e.ErrInvalidConfig:       "⚙️",
		e.ErrInvalidUsage:        "❔",
		e.ErrUnknown:             "❓",
	}
	if ic, ok := icons[code]; ok {
		return ic
	}
	return terminal.IconError
}

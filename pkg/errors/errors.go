// Package errors provides enhanced error types with context for etlrun.
// These errors carry suggestions, a context map, and lightweight stack
// traces so the CLI can tell the operator what went wrong and what to try.
package errors

import (
	"errors"
	"runtime"
	"strconv"
	"strings"
)

// ErrorCode categorizes errors for handling
type ErrorCode string

const (
	// Interpreter and environment errors
	ErrInterpreterNotFound ErrorCode = "INTERPRETER_NOT_FOUND"
	ErrActivationFailed    ErrorCode = "ACTIVATION_FAILED"
	ErrVenvCreateFailed    ErrorCode = "VENV_CREATE_FAILED"

	// ETL script errors
	ErrScriptNotFound ErrorCode = "SCRIPT_NOT_FOUND"
	ErrScriptFailed   ErrorCode = "SCRIPT_FAILED"

	// Filesystem errors
	ErrBaseDirUnresolved ErrorCode = "BASE_DIR_UNRESOLVED"
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"
	ErrPermissionDenied  ErrorCode = "PERMISSION_DENIED"

	// Watch errors
	ErrWatchFailed ErrorCode = "WATCH_FAILED"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrInvalidUsage  ErrorCode = "INVALID_USAGE"

	// Unknown errors
	ErrUnknown ErrorCode = "UNKNOWN"
)

// StackFrame represents a single stack frame
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// LaunchError is the base error type with rich context
type LaunchError struct {
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      error             `json:"-"`
	Context    map[string]string `json:"context,omitempty"`
	Stack      []StackFrame      `json:"stack,omitempty"`
	// Reported is set once the error was shown to the user.
	Reported   bool              `json:"-"`
}

// Error implements the error interface
func (e *LaunchError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}
	if e.Cause != nil {
		sb.WriteString("\nCaused by: ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *LaunchError) Unwrap() error { return e.Cause }

// WithSuggestion adds a suggestion for fixing the error
func (e *LaunchError) WithSuggestion(suggestion string) *LaunchError {
	e.Suggestion = suggestion
	return e
}

// WithContext adds contextual information
func (e *LaunchError) WithContext(key, value string) *LaunchError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps another error
func (e *LaunchError) WithCause(cause error) *LaunchError {
	e.Cause = cause
	return e
}

// WithDetails adds detailed information
func (e *LaunchError) WithDetails(details string) *LaunchError {
	e.Details = details
	return e
}

// MarkReported records that the error was already shown, so the CLI only
// exits with its code.
func (e *LaunchError) MarkReported() *LaunchError {
	e.Reported = true
	return e
}

// New creates a new LaunchError
func New(code ErrorCode, message string) *LaunchError {
	err := &LaunchError{
		Code:    code,
		Message: message,
		Context: make(map[string]string),
	}
	err.captureStack()
	err.Suggestion = getDefaultSuggestion(code)
	return err
}

// Wrap wraps a standard error with LaunchError
func Wrap(err error, code ErrorCode, message string) *LaunchError {
	if err == nil {
		return nil
	}
	var launchErr *LaunchError
	if errors.As(err, &launchErr) {
		if message != "" {
			launchErr.Message = message + ": " + launchErr.Message
		}
		return launchErr
	}
	return New(code, message).WithCause(err)
}

// ScriptFailed reports a non-zero ETL exit. The exit code travels in the
// context so the CLI can reuse it as the process exit status.
func ScriptFailed(script string, exitCode int) *LaunchError {
	return New(ErrScriptFailed, "ETL script exited with code "+strconv.Itoa(exitCode)).
		WithContext("script", script).
		WithContext("exit_code", strconv.Itoa(exitCode))
}

// ExitCode returns the exit status the process should end with for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var launchErr *LaunchError
	if errors.As(err, &launchErr) && launchErr.Code == ErrScriptFailed {
		if v, convErr := strconv.Atoi(launchErr.Context["exit_code"]); convErr == nil && v > 0 {
			return v
		}
	}
	return 1
}

// captureStack captures the current stack trace
func (e *LaunchError) captureStack() {
	const maxFrames = 10
	pc := make([]uintptr, maxFrames)
	n := runtime.Callers(3, pc) // Skip runtime.Callers, captureStack, New/Wrap
	frames := runtime.CallersFrames(pc[:n])
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") || strings.Contains(frame.File, "testing/") {
			if !more {
				break
			}
			continue
		}
		e.Stack = append(e.Stack, StackFrame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more {
			break
		}
	}
}

// getDefaultSuggestion provides default fix suggestions
func getDefaultSuggestion(code ErrorCode) string {
	suggestions := map[ErrorCode]string{
		ErrInterpreterNotFound: "Install Python 3 and make sure it is on PATH, or set 'python' in etlrun.yaml",
		ErrActivationFailed:    "Recreate the virtual environment: etlrun setup",
		ErrVenvCreateFailed:    "Check that the 'venv' module is available: python -m venv --help",
		ErrScriptNotFound:      "Place run_etl.py next to etlrun or set 'script' in etlrun.yaml",
		ErrScriptFailed:        "Read the ETL output above; its artifacts are in the output folder",
		ErrBaseDirUnresolved:   "Pass the project folder explicitly: etlrun --dir <path>",
		ErrPermissionDenied:    "Check file permissions on the project folder",
		ErrWatchFailed:         "Make sure the input folder exists: etlrun doctor --fix",
		ErrInvalidConfig:       "Fix etlrun.yaml or remove it to use defaults",
		ErrInvalidUsage:        "Run 'etlrun help' for usage",
	}
	if s, ok := suggestions[code]; ok {
		return s
	}
	return "Run 'etlrun doctor' for diagnostics"
}

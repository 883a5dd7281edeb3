// Package exec provides command execution wrappers for etlrun.
// It centralizes how child processes are created so callers can inject
// a recording Commander in tests, and it holds the shell quoting helpers
// used to build activation and diagnostic command lines.
package exec

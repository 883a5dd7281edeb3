package exec

import (
	"fmt"
	"runtime"
	"strings"
)

// Quote quotes a string for shell execution
func Quote(s string) string {
	if runtime.GOOS == "windows" {
		return QuoteCmd(s)
	}
	return QuoteSh(s)
}

// QuoteSh quotes s for a POSIX shell.
func QuoteSh(s string) string {
	return fmt.Sprintf("'%s'", strings.ReplaceAll(s, "'", "'\\''"))
}

// QuoteCmd quotes s for cmd.exe. Embedded quotes are doubled.
func QuoteCmd(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// JoinArgs joins arguments for display or shell execution. Arguments without
// whitespace or quotes are left bare so log lines stay readable.
func JoinArgs(args []string) string {
	out := make([]string, len(args))
	for i, arg := range args {
		if arg != "" && !strings.ContainsAny(arg, " \t\"'") {
			out[i] = arg
			continue
		}
		out[i] = Quote(arg)
	}
	return strings.Join(out, " ")
}

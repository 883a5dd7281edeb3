package terminal

import (
	"strings"
	"unicode/utf8"
)

// Banner frames lines between two rules of '=' as wide as the longest line
// plus a one-space margin on each side.
func Banner(lines ...string) string {
	width := 0
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n > width {
			width = n
		}
	}
	rule := strings.Repeat("=", width+2)

	var sb strings.Builder
	sb.WriteString(rule)
	sb.WriteString("\n")
	for _, l := range lines {
		sb.WriteString(" ")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString(rule)
	sb.WriteString("\n")
	return sb.String()
}

package terminal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBanner_WidthFollowsLongestLine(t *testing.T) {
	got := Banner("short", "a much longer line")
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, strings.Repeat("=", len("a much longer line")+2), lines[0])
	assert.Equal(t, lines[0], lines[3])
	assert.Equal(t, " short", lines[1])
}

func TestBanner_Empty(t *testing.T) {
	assert.Equal(t, "==\n==\n", Banner())
}

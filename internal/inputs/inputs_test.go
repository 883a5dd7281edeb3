package inputs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Defaults(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPatterns, m.Patterns())

	cases := map[string]bool{
		"sales.xlsx":                true,
		"SALES.XLSX":                true,
		"legacy.xls":                true,
		"export.csv":                true,
		filepath.Join("a", "b.csv"): true,
		"notes.txt":                 false,
		"~$sales.xlsx":              false,
		"xlsx":                      false,
	}
	for name, want := range cases {
		assert.Equal(t, want, m.Match(name), name)
	}
}

func TestMatcher_InvalidPattern(t *testing.T) {
	_, err := NewMatcher([]string{"[abc"})
	assert.Error(t, err)
}

func TestMatcher_CustomPatterns(t *testing.T) {
	m, err := NewMatcher([]string{" report-*.csv ", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"report-*.csv"}, m.Patterns())
	assert.True(t, m.Match("Report-2024.CSV"))
	assert.False(t, m.Match("data.csv"))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.xlsx", "skip.txt", "~$a.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))

	m, err := NewMatcher(nil)
	require.NoError(t, err)
	files, err := m.List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.xlsx"), filepath.Join(dir, "b.csv")}, files)
}

func TestList_MissingFolder(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)
	files, err := m.List(filepath.Join(t.TempDir(), "input"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

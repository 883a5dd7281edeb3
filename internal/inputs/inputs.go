// Package inputs recognizes the data files the ETL script ingests from the
// input folder.
package inputs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultPatterns are the spreadsheet and CSV files the ETL reads.
var DefaultPatterns = []string{"*.xlsx", "*.xls", "*.csv"}

// Matcher matches file base names against glob patterns, ignoring case.
type Matcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewMatcher compiles patterns. An empty list falls back to DefaultPatterns.
func NewMatcher(patterns []string) (*Matcher, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	m := &Matcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern '%s': %w", p, err)
		}
		m.patterns = append(m.patterns, p)
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Patterns returns the compiled patterns as given.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Match reports whether the base name of path matches any pattern.
// Office lock files ("~$book.xlsx") never match.
func (m *Matcher) Match(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(name, "~$") {
		return false
	}
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// List returns the matching regular files directly inside folder, sorted.
// A missing folder yields no files and no error.
func (m *Matcher) List(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		if !ent.Type().IsRegular() {
			continue
		}
		if m.Match(ent.Name()) {
			files = append(files, filepath.Join(folder, ent.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

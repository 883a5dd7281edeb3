// Command covercheck enforces a per-file statement coverage floor on a
// `go test -coverprofile` profile. Test files are ignored.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type fileCov struct {
	total   int
	covered int
}

func main() {
	profile := pflag.String("profile", "coverage.out", "coverage profile file (go test -coverprofile)")
	threshold := pflag.Float64("threshold", 80.0, "minimum per-file coverage percentage")
	include := pflag.String("include", "", "comma-separated path prefixes to include (optional)")
	pflag.Parse()

	f, err := os.Open(*profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "covercheck: failed to open profile: %v\n", err)
		os.Exit(2)
	}
	defer f.Close()

	cov, err := parseProfile(f, splitFilters(*include))
	if err != nil {
		fmt.Fprintf(os.Stderr, "covercheck: read error: %v\n", err)
		os.Exit(2)
	}
	if failed := below(cov, *threshold); len(failed) > 0 {
		fmt.Fprintln(os.Stderr, "Per-file coverage check failed:")
		for _, msg := range failed {
			fmt.Fprintln(os.Stderr, "  ", msg)
		}
		os.Exit(1)
	}
}

func splitFilters(include string) []string {
	var filters []string
	for _, p := range strings.Split(include, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			filters = append(filters, filepath.ToSlash(p))
		}
	}
	return filters
}

// parseProfile sums statements per file. Lines look like
// file.go:startLine.startCol,endLine.endCol numStatements count
func parseProfile(r io.Reader, filters []string) (map[string]*fileCov, error) {
	cov := make(map[string]*fileCov)
	s := bufio.NewScanner(r)
	first := true
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if first {
			// mode: set|count|atomic
			first = false
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		i := strings.Index(fields[0], ":")
		if i <= 0 {
			continue
		}
		filename := filepath.ToSlash(fields[0][:i])
		if strings.HasSuffix(filename, "_test.go") || !included(filename, filters) {
			continue
		}
		numStmt, err1 := strconv.Atoi(fields[1])
		cnt, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			continue
		}
		fc := cov[filename]
		if fc == nil {
			fc = &fileCov{}
			cov[filename] = fc
		}
		fc.total += numStmt
		if cnt > 0 {
			fc.covered += numStmt
		}
	}
	return cov, s.Err()
}

func included(filename string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.HasPrefix(filename, f) {
			return true
		}
	}
	return false
}

// below lists files under threshold, sorted by name.
func below(cov map[string]*fileCov, threshold float64) []string {
	var failed []string
	for file, fc := range cov {
		if fc.total == 0 {
			continue
		}
		pct := float64(fc.covered) * 100.0 / float64(fc.total)
		if pct+1e-9 < threshold {
			failed = append(failed, fmt.Sprintf("%s: %.1f%% < %.1f%%", file, pct, threshold))
		}
	}
	sort.Strings(failed)
	return failed
}

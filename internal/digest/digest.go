// Package digest computes stable digests of the requirements manifest so
// the launcher can tell whether the dependency set changed since the last
// successful install. Only semantically meaningful lines are hashed:
// comments, blank lines, whitespace and ordering do not count. Pip option
// lines do, and so do the files they include.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm names a supported hash function.
type Algorithm string

const (
	Blake3 Algorithm = "blake3"
	SHA256 Algorithm = "sha256"
)

// NoManifest is the digest reported when the manifest file does not exist.
const NoManifest = "no-manifest"

// Manifest is the digest of a requirements file.
type Manifest struct {
	Path         string    `json:"path"`
	Algorithm    Algorithm `json:"algorithm"`
	Hash         string    `json:"hash"`
	Requirements []string  `json:"requirements"`
	Options      []string  `json:"options,omitempty"`
	Includes     []string  `json:"includes,omitempty"`
}

// Short returns the first 16 hex characters of the hash.
func (m *Manifest) Short() string {
	if len(m.Hash) > 16 {
		return m.Hash[:16]
	}
	return m.Hash
}

// ManifestDigest hashes the requirements manifest at path. A missing file is
// not an error: the returned Manifest carries NoManifest as its hash.
// Files pulled in with -r or -c are digested too, relative to the manifest
// that names them, and their hashes feed the parent's.
func ManifestDigest(path string, algo Algorithm) (*Manifest, error) {
	if algo == "" {
		algo = Blake3
	}
	if _, err := newHash(algo); err != nil {
		return nil, err
	}
	return digestFile(path, algo, map[string]bool{})
}

// digestFile hashes one manifest. active holds the files currently being
// digested further up, so include cycles terminate.
func digestFile(path string, algo Algorithm, active map[string]bool) (*Manifest, error) {
	h, _ := newHash(algo)
	m := &Manifest{Path: path, Algorithm: algo}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		m.Hash = NoManifest
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	normalized, err := Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}
	m.Requirements, m.Options = Parse(normalized)

	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	active[key] = true
	defer delete(active, key)

	for _, req := range m.Requirements {
		fmt.Fprintln(h, req)
	}
	for _, opt := range m.Options {
		fmt.Fprintln(h, opt)
		ref, ok := IncludeTarget(opt)
		if !ok {
			continue
		}
		if !filepath.IsAbs(ref) {
			ref = filepath.Join(filepath.Dir(path), ref)
		}
		refKey := ref
		if abs, err := filepath.Abs(ref); err == nil {
			refKey = abs
		}
		if active[refKey] {
			fmt.Fprintln(h, "cycle")
			continue
		}
		sub, err := digestFile(ref, algo, active)
		if err != nil {
			return nil, err
		}
		m.Includes = append(m.Includes, sub.Path)
		m.Includes = append(m.Includes, sub.Includes...)
		fmt.Fprintln(h, sub.Hash)
	}
	m.Hash = hex.EncodeToString(h.Sum(nil))
	return m, nil
}

// Requirements extracts the sorted requirement lines of a manifest.
func Requirements(content []byte) []string {
	reqs, _ := Parse(content)
	return reqs
}

// Parse splits a manifest into sorted requirement lines and sorted pip
// option lines (those starting with '-'). Comments and blank lines are
// dropped, whitespace around version specifiers is collapsed and option
// arguments are separated by a single space.
func Parse(content []byte) (reqs, opts []string) {
	for _, line := range strings.Split(string(content), "\n") {
		if i := strings.Index(line, " #"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
		case strings.HasPrefix(line, "-"):
			opts = append(opts, strings.Join(strings.Fields(line), " "))
		default:
			reqs = append(reqs, strings.Join(strings.Fields(line), ""))
		}
	}
	sort.Strings(reqs)
	sort.Strings(opts)
	return reqs, opts
}

// IncludeTarget returns the file named by a -r/--requirement or
// -c/--constraint option line.
func IncludeTarget(opt string) (string, bool) {
	fields := strings.Fields(opt)
	if len(fields) == 0 {
		return "", false
	}
	flag := fields[0]
	switch flag {
	case "-r", "--requirement", "-c", "--constraint":
		if len(fields) < 2 {
			return "", false
		}
		return fields[1], true
	}
	for _, long := range []string{"--requirement=", "--constraint="} {
		if strings.HasPrefix(flag, long) && len(flag) > len(long) {
			return flag[len(long):], true
		}
	}
	if (strings.HasPrefix(flag, "-r") || strings.HasPrefix(flag, "-c")) && !strings.HasPrefix(flag, "--") && len(flag) > 2 {
		return flag[2:], true
	}
	return "", false
}

func newHash(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case Blake3:
		return blake3.New(), nil
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported algorithm %q (supported: blake3, sha256)", algo)
	}
}

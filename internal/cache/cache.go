// Package cache records the last successful dependency install so a later
// launch can tell whether the requirements manifest changed since then.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// testable time wrapper
var timeNow = time.Now

// Dir is the per-project state folder, relative to the base folder.
const Dir = ".etlrun"

// Stamp describes one successful manifest install.
type Stamp struct {
	ManifestHash string    `json:"manifest_hash"`
	Algorithm    string    `json:"algorithm"`
	Interpreter  string    `json:"interpreter"`
	Venv         string    `json:"venv,omitempty"`
	RunID        string    `json:"run_id"`
	InstalledAt  time.Time `json:"installed_at"`
}

// StampStore persists the install stamp of one project. It is safe for
// concurrent use.
type StampStore struct {
	path string
	mu   sync.RWMutex
	mem  *Stamp
}

// NewStampStore returns a store for the project rooted at base.
func NewStampStore(base string) *StampStore {
	return &StampStore{path: filepath.Join(base, Dir, "install-stamp.json")}
}

// Path returns the stamp file location.
func (s *StampStore) Path() string { return s.path }

// Load returns the recorded stamp, or nil when none exists. A corrupt stamp
// file is treated as absent.
func (s *StampStore) Load() (*Stamp, error) {
	s.mu.RLock()
	if s.mem != nil {
		st := *s.mem
		s.mu.RUnlock()
		return &st, nil
	}
	s.mu.RUnlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read install stamp: %w", err)
	}
	var st Stamp
	if json.Unmarshal(b, &st) != nil {
		return nil, nil
	}

	s.mu.Lock()
	s.mem = &st
	s.mu.Unlock()
	cp := st
	return &cp, nil
}

// Matches reports whether the recorded stamp covers hash installed with
// interpreter into the virtual environment rooted at venv ("" for the
// system interpreter).
func (s *StampStore) Matches(hash, interpreter, venv string) bool {
	st, err := s.Load()
	if err != nil || st == nil {
		return false
	}
	return st.ManifestHash == hash && st.Interpreter == interpreter && st.Venv == venv
}

// Save records st, filling InstalledAt when unset.
func (s *StampStore) Save(st Stamp) error {
	if st.InstalledAt.IsZero() {
		st.InstalledAt = timeNow().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write install stamp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write install stamp: %w", err)
	}

	s.mu.Lock()
	s.mem = &st
	s.mu.Unlock()
	return nil
}

// Clear removes the stamp so the next launch reinstalls.
func (s *StampStore) Clear() error {
	s.mu.Lock()
	s.mem = nil
	s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

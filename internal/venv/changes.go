package venv

import (
	"os"
	"path/filepath"
	"sort"

	"etlrun/internal/detector"
)

// volatile holds variables a dumping shell sets for itself.
var volatile = map[string]bool{
	"_": true, "SHLVL": true, "PWD": true, "OLDPWD": true,
	"PROMPT": true, "PS1": true,
}

// unsettable holds the only variables an activation may remove. Anything
// else missing from a dump is more likely a parse artifact than a real unset.
var unsettable = []string{"PYTHONHOME"}

// Changes is the environment delta produced by an activation.
type Changes struct {
	Set   map[string]string `json:"set,omitempty"`
	Unset []string          `json:"unset,omitempty"`
}

// Empty reports whether the delta changes nothing.
func (c Changes) Empty() bool { return len(c.Set) == 0 && len(c.Unset) == 0 }

// Apply writes the delta to env in a stable order.
func (c Changes) Apply(env Environ) error {
	keys := make([]string, 0, len(c.Set))
	for k := range c.Set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := env.Setenv(k, c.Set[k]); err != nil {
			return err
		}
	}
	for _, k := range c.Unset {
		if err := env.Unsetenv(k); err != nil {
			return err
		}
	}
	return nil
}

// Diff returns what changed from before to after. Names compare
// case-insensitively when fold is set, as on Windows; the spelling already
// present in before is kept.
func Diff(before, after map[string]string, fold bool) Changes {
	c := Changes{Set: make(map[string]string)}
	for k, v := range after {
		if volatile[k] {
			continue
		}
		name, old, ok := lookup(before, k, fold)
		if !ok {
			name = k
		}
		if !ok || old != v {
			c.Set[name] = v
		}
	}
	for _, k := range unsettable {
		name, _, inBefore := lookup(before, k, fold)
		if _, _, inAfter := lookup(after, k, fold); inBefore && !inAfter {
			c.Unset = append(c.Unset, name)
		}
	}
	return c
}

// LayoutChanges derives an activation from the artifact's location alone:
// VIRTUAL_ENV points at the environment, its script folder leads PATH and
// PYTHONHOME is cleared. It is what every activate script does at its core.
func LayoutChanges(artifact string, current map[string]string, fold bool) Changes {
	binDir := filepath.Dir(artifact)
	pathKey, path, ok := lookup(current, "PATH", fold)
	if !ok {
		pathKey = "PATH"
	}
	if path != "" {
		path = binDir + string(os.PathListSeparator) + path
	} else {
		path = binDir
	}

	c := Changes{Set: map[string]string{
		"VIRTUAL_ENV": detector.VenvRoot(artifact),
		pathKey:       path,
	}}
	if name, _, ok := lookup(current, "PYTHONHOME", fold); ok {
		c.Unset = []string{name}
	}
	return c
}

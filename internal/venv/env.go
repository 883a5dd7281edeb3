package venv

import (
	"os"
	"sort"
	"strings"
)

// Environ is the environment an activation mutates.
type Environ interface {
	Environ() []string
	Setenv(key, value string) error
	Unsetenv(key string) error
}

// ProcessEnv is the environment of the running process. Children started
// afterwards inherit whatever an activation applied to it.
type ProcessEnv struct{}

func (ProcessEnv) Environ() []string              { return os.Environ() }
func (ProcessEnv) Setenv(key, value string) error { return os.Setenv(key, value) }
func (ProcessEnv) Unsetenv(key string) error      { return os.Unsetenv(key) }

// MapEnv is an in-memory Environ.
type MapEnv map[string]string

func (m MapEnv) Environ() []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func (m MapEnv) Setenv(key, value string) error {
	m[key] = value
	return nil
}

func (m MapEnv) Unsetenv(key string) error {
	delete(m, key)
	return nil
}

// ParseEnvDump turns an environment dump into a map. A dump containing NUL
// bytes, as printed by `env -0`, is split on NUL so values may span lines;
// anything else is read as NAME=value lines, as printed by `set`. Entries
// without '=' and cmd.exe's hidden "=C:" entries are skipped.
func ParseEnvDump(dump string) map[string]string {
	sep, trim := "\n", "\r"
	if strings.IndexByte(dump, 0) >= 0 {
		sep, trim = "\x00", ""
	}
	vars := make(map[string]string)
	for _, line := range strings.Split(dump, sep) {
		line = strings.TrimRight(line, trim)
		i := strings.IndexByte(line, '=')
		if i <= 0 {
			continue
		}
		vars[line[:i]] = line[i+1:]
	}
	return vars
}

// EnvMap turns os.Environ-style entries into a map.
func EnvMap(entries []string) map[string]string {
	vars := make(map[string]string, len(entries))
	for _, e := range entries {
		if i := strings.IndexByte(e, '='); i > 0 {
			vars[e[:i]] = e[i+1:]
		}
	}
	return vars
}

// lookup finds key in vars, ignoring case when fold is set. It returns the
// key as spelled in vars.
func lookup(vars map[string]string, key string, fold bool) (string, string, bool) {
	if v, ok := vars[key]; ok {
		return key, v, true
	}
	if fold {
		for k, v := range vars {
			if strings.EqualFold(k, key) {
				return k, v, true
			}
		}
	}
	return "", "", false
}

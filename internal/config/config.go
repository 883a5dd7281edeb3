// Package config provides configuration management for etlrun.
// It loads launcher settings from etlrun.yaml in the project folder and
// layers environment overrides on top.
//
// Every field has a default matching the classic project layout:
//   - venv/Scripts/activate.bat (venv/bin/activate off Windows)
//   - requirements.txt
//   - run_etl.py
//   - input/ and output/ folders next to the script
//
// A missing file is not an error: defaults apply. Keys present in the file
// replace the corresponding defaults; absent keys keep them. The folder
// settings are then taken from the ETL script's own config.yaml when it
// names them, since that is where the script reads and writes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project folder.
const FileName = "etlrun.yaml"

// ETLFileName is the ETL script's configuration file.
const ETLFileName = "config.yaml"

// etlFolders are the keys of config.yaml the launcher shares with the script.
type etlFolders struct {
	InputFolder  string `yaml:"input_folder"`
	OutputFolder string `yaml:"output_folder"`
}

// Config holds launcher settings.
type Config struct {
	Python        string   `yaml:"python"`
	VenvActivate  string   `yaml:"venv_activate"`
	Requirements  string   `yaml:"requirements"`
	Script        string   `yaml:"script"`
	InputFolder   string   `yaml:"input_folder"`
	OutputFolder  string   `yaml:"output_folder"`
	InputPatterns []string `yaml:"input_patterns"`

	// Pause waits for a keypress after the completion banner.
	Pause bool `yaml:"pause"`
	// StrictExit makes the launcher exit with the ETL script's exit code.
	StrictExit bool `yaml:"strict_exit"`
	// SkipUnchangedInstall skips the manifest install when its digest
	// matches the last successful install.
	SkipUnchangedInstall bool `yaml:"skip_unchanged_install"`
	// WatchDebounce delays a watch-triggered run until input events settle.
	WatchDebounce string `yaml:"watch_debounce"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Python:        "python3",
		VenvActivate:  filepath.Join("venv", "bin", "activate"),
		Requirements:  "requirements.txt",
		Script:        "run_etl.py",
		InputFolder:   "input",
		OutputFolder:  "output",
		InputPatterns: []string{"*.xlsx", "*.xls", "*.csv"},
		Pause:         true,
		WatchDebounce: "2s",
	}
	if runtime.GOOS == "windows" {
		cfg.Python = "python"
		cfg.VenvActivate = filepath.Join("venv", "Scripts", "activate.bat")
	}
	return cfg
}

// Path returns the configuration file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads dir/etlrun.yaml over the defaults and applies environment
// overrides. If the file is missing, defaults are returned with a nil error.
// On a parse error the defaults (with overrides) are returned alongside the
// error so callers may continue.
func Load(dir string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(Path(dir))
	switch {
	case errors.Is(err, os.ErrNotExist):
		err = nil
	case err != nil:
		err = fmt.Errorf("read %s: %w", Path(dir), err)
	default:
		if uerr := yaml.Unmarshal(b, cfg); uerr != nil {
			cfg = Default()
			err = fmt.Errorf("parse %s: %w", Path(dir), uerr)
		}
	}
	if eerr := cfg.applyETLConfig(dir); eerr != nil && err == nil {
		err = eerr
	}
	cfg.applyEnv(os.Getenv)
	if verr := cfg.Validate(); verr != nil && err == nil {
		err = verr
	}
	return cfg, err
}

// Save writes cfg to dir/etlrun.yaml.
func Save(dir string, cfg *Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(dir), b, 0o644)
}

// Validate checks that required fields are set.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Python) == "" {
		missing = append(missing, "python")
	}
	if strings.TrimSpace(c.Script) == "" {
		missing = append(missing, "script")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: empty %s", strings.Join(missing, ", "))
	}
	return nil
}

// applyETLConfig copies input_folder and output_folder from dir/config.yaml.
// A missing file changes nothing.
func (c *Config) applyETLConfig(dir string) error {
	path := filepath.Join(dir, ETLFileName)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var f etlFolders
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if f.InputFolder != "" {
		c.InputFolder = f.InputFolder
	}
	if f.OutputFolder != "" {
		c.OutputFolder = f.OutputFolder
	}
	return nil
}

// applyEnv layers ETLRUN_* overrides onto c.
func (c *Config) applyEnv(getenv func(string) string) {
	strs := map[string]*string{
		"ETLRUN_PYTHON":        &c.Python,
		"ETLRUN_VENV_ACTIVATE": &c.VenvActivate,
		"ETLRUN_REQUIREMENTS":  &c.Requirements,
		"ETLRUN_SCRIPT":        &c.Script,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	if v, ok := parseBool(getenv("ETLRUN_NO_PAUSE")); ok {
		c.Pause = !v
	}
	if v, ok := parseBool(getenv("ETLRUN_STRICT")); ok {
		c.StrictExit = v
	}
}

func parseBool(s string) (bool, bool) {
	if s == "" {
		return false, false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return v, true
}

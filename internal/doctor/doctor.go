// Package doctor provides project health checks for etlrun.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"etlrun/internal/detector"
	"etlrun/internal/digest"
	"etlrun/internal/inputs"
	pexec "etlrun/pkg/exec"
	"etlrun/pkg/terminal"
)

// lookPath enables test stubbing.
var lookPath = pexec.LookPath

// Doctor performs project health checks
type Doctor struct {
	checks  []HealthCheck
	verbose bool
	out     io.Writer
}

// HealthCheck represents a single diagnostic check
type HealthCheck interface {
	Name() string
	Description() string
	Run() CheckResult
	CanAutoFix() bool
	Fix() error
	Severity() Severity
}

// CheckResult contains the outcome of a health check
type CheckResult struct {
	Status     Status
	Message    string
	Details    string
	FixCommand string
	Impact     string
}

// Status represents check status
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
	StatusCritical
)

// Severity indicates how important a fix is
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "critical"
	}
}

// HealthReport summarizes checks
type HealthReport struct {
	TotalChecks int
	Passed      int
	Warnings    int
	Errors      int
	Critical    int
	Score       int
	StartTime   time.Time
	EndTime     time.Time
}

// Healthy reports whether nothing blocks a launch.
func (r HealthReport) Healthy() bool { return r.Errors == 0 && r.Critical == 0 }

// New returns a Doctor running checks and printing to out.
func New(out io.Writer, verbose bool, checks ...HealthCheck) *Doctor {
	return &Doctor{checks: checks, verbose: verbose, out: out}
}

// Checks returns the standard checks for a project.
func Checks(layout *detector.Layout, python string, m *inputs.Matcher, commander pexec.Commander) []HealthCheck {
	return []HealthCheck{
		&InterpreterCheck{Python: python, Commander: commander},
		&VenvCheck{Layout: layout, Python: python, Commander: commander},
		&ManifestCheck{Layout: layout},
		&ScriptCheck{Layout: layout},
		&InputCheck{Layout: layout, Matcher: m},
		&OutputCheck{Layout: layout},
	}
}

// Run executes all checks and prints a concise report
func (d *Doctor) Run() HealthReport {
	rpt := HealthReport{StartTime: time.Now()}
	fmt.Fprintf(d.out, "\n%s etlrun doctor - Project Health Check\n", terminal.IconPython)
	fmt.Fprintln(d.out, strings.Repeat("=", 52))
	for _, c := range d.checks {
		if d.verbose {
			fmt.Fprintf(d.out, "%s%s...%s\n", terminal.Dim, c.Description(), terminal.Reset)
		}
		res := c.Run()
		d.printResult(c, res)
		rpt.TotalChecks++
		switch res.Status {
		case StatusOK:
			rpt.Passed++
		case StatusWarning:
			rpt.Warnings++
		case StatusError:
			rpt.Errors++
		case StatusCritical:
			rpt.Critical++
		}
	}
	rpt.EndTime = time.Now()
	// 100 minus penalties
	rpt.Score = 100 - rpt.Warnings*5 - rpt.Errors*15 - rpt.Critical*25
	if rpt.Score < 0 {
		rpt.Score = 0
	}
	fmt.Fprintf(d.out, "\n⏱  Completed in %.2fs\n", rpt.EndTime.Sub(rpt.StartTime).Seconds())
	fmt.Fprintf(d.out, "Health Score: %d/100\n", rpt.Score)
	if rpt.Passed < rpt.TotalChecks {
		fmt.Fprintln(d.out, "Run 'etlrun doctor --fix' to auto-fix issues where possible")
	}
	return rpt
}

func (d *Doctor) printResult(c HealthCheck, r CheckResult) {
	icon := terminal.IconSuccess
	switch r.Status {
	case StatusWarning:
		icon = terminal.IconWarning + " "
	case StatusError, StatusCritical:
		icon = terminal.IconError
	}
	if r.Status == StatusOK {
		fmt.Fprintf(d.out, "%s %s\n", icon, r.Message)
	} else {
		fmt.Fprintf(d.out, "%s %s [%s]\n", icon, r.Message, c.Severity())
	}
	if r.Details != "" && d.verbose {
		fmt.Fprintf(d.out, "   %s\n", r.Details)
	}
	if r.FixCommand != "" && r.Status != StatusOK {
		fmt.Fprintf(d.out, "   💡 Fix: %s\n", r.FixCommand)
	}
	if r.Impact != "" && r.Status == StatusCritical {
		fmt.Fprintf(d.out, "   %s  Impact: %s\n", terminal.IconWarning, r.Impact)
	}
}

// Fix attempts automatic fixes for checks that support it, most severe
// first. It returns how many fixes failed.
func (d *Doctor) Fix() int {
	fmt.Fprintln(d.out, "\n🔧 Attempting to fix issues...")
	checks := append([]HealthCheck(nil), d.checks...)
	sort.SliceStable(checks, func(i, j int) bool { return checks[i].Severity() > checks[j].Severity() })
	failed := 0
	for _, c := range checks {
		res := c.Run()
		if res.Status == StatusOK || !c.CanAutoFix() {
			continue
		}
		if err := c.Fix(); err != nil {
			failed++
			fmt.Fprintf(d.out, "%s %s: fix failed: %v\n", terminal.IconError, c.Name(), err)
		} else {
			fmt.Fprintf(d.out, "%s %s: fixed\n", terminal.IconSuccess, c.Name())
		}
	}
	return failed
}

// InterpreterCheck verifies the Python interpreter can be found and started.
type InterpreterCheck struct {
	Python    string
	Commander pexec.Commander
}

func (c *InterpreterCheck) Name() string        { return "Python" }
func (c *InterpreterCheck) Description() string { return "Checking for the Python interpreter" }
func (c *InterpreterCheck) CanAutoFix() bool    { return false }
func (c *InterpreterCheck) Fix() error          { return nil }
func (c *InterpreterCheck) Severity() Severity  { return SeverityCritical }

func (c *InterpreterCheck) Run() CheckResult {
	path, err := lookPath(c.Python)
	if err != nil {
		return CheckResult{
			Status:     StatusCritical,
			Message:    fmt.Sprintf("%s not found on PATH", c.Python),
			Details:    err.Error(),
			FixCommand: "Install Python 3 and tick 'Add python.exe to PATH', or set python in etlrun.yaml",
			Impact:     "Dependencies cannot be installed and the ETL cannot run",
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := c.Commander.CommandContext(ctx, c.Python, "--version").Output()
	if err != nil {
		return CheckResult{Status: StatusError, Message: fmt.Sprintf("%s is not responding", c.Python), Details: err.Error(), Impact: "The ETL cannot run"}
	}
	version := strings.TrimSpace(string(out))
	if version == "" {
		version = c.Python
	}
	return CheckResult{Status: StatusOK, Message: fmt.Sprintf("%s (%s)", version, path)}
}

// VenvCheck reports whether a virtual environment will be activated.
type VenvCheck struct {
	Layout    *detector.Layout
	Python    string
	Commander pexec.Commander
}

func (c *VenvCheck) Name() string        { return "Virtual environment" }
func (c *VenvCheck) Description() string { return "Checking for the project virtual environment" }
func (c *VenvCheck) CanAutoFix() bool    { return c.Layout.Activation.Path != "" }
func (c *VenvCheck) Severity() Severity  { return SeverityLow }

func (c *VenvCheck) root() string { return detector.VenvRoot(c.Layout.Activation.Path) }

// Fix creates the virtual environment with `python -m venv`.
func (c *VenvCheck) Fix() error {
	return CreateVenv(context.Background(), c.Commander, c.Python, c.Layout.Base, c.root())
}

func (c *VenvCheck) Run() CheckResult {
	if c.Layout.Activation.Path == "" {
		return CheckResult{Status: StatusOK, Message: "Virtual environment disabled, using system Python"}
	}
	if !c.Layout.Activation.Exists {
		return CheckResult{
			Status:     StatusWarning,
			Message:    "No virtual environment found, system Python will be used",
			Details:    fmt.Sprintf("missing %s", c.Layout.Activation.Path),
			FixCommand: fmt.Sprintf("%s -m venv %s", c.Python, pexec.Quote(c.root())),
		}
	}
	return CheckResult{Status: StatusOK, Message: fmt.Sprintf("Virtual environment at %s", c.root())}
}

// CreateVenv runs `python -m venv dir` in base.
func CreateVenv(ctx context.Context, commander pexec.Commander, python, base, dir string) error {
	cmd := commander.CommandContext(ctx, python, "-m", "venv", dir)
	cmd.Dir = base
	code, err := pexec.ExitCode(cmd)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("%s -m venv exited %d", python, code)
	}
	return nil
}

// ManifestCheck verifies the requirements manifest.
type ManifestCheck struct {
	Layout *detector.Layout
}

func (c *ManifestCheck) Name() string        { return "Requirements" }
func (c *ManifestCheck) Description() string { return "Checking the requirements manifest" }
func (c *ManifestCheck) CanAutoFix() bool    { return false }
func (c *ManifestCheck) Fix() error          { return nil }
func (c *ManifestCheck) Severity() Severity  { return SeverityMedium }

func (c *ManifestCheck) Run() CheckResult {
	m, err := digest.ManifestDigest(c.Layout.Requirements.Path, digest.Blake3)
	if err != nil {
		return CheckResult{Status: StatusError, Message: "Requirements manifest is unreadable", Details: err.Error(), Impact: "Dependencies will not be installed"}
	}
	if m.Hash == digest.NoManifest {
		return CheckResult{
			Status:     StatusWarning,
			Message:    fmt.Sprintf("%s not found", filepath.Base(c.Layout.Requirements.Path)),
			FixCommand: "pip freeze > requirements.txt",
			Impact:     "Packages the ETL imports must already be installed",
		}
	}
	return CheckResult{
		Status:  StatusOK,
		Message: fmt.Sprintf("%d requirement(s) in %s", len(m.Requirements), filepath.Base(m.Path)),
		Details: fmt.Sprintf("digest %s:%s", m.Algorithm, m.Short()),
	}
}

// ScriptCheck verifies the ETL entry point exists.
type ScriptCheck struct {
	Layout *detector.Layout
}

func (c *ScriptCheck) Name() string        { return "ETL script" }
func (c *ScriptCheck) Description() string { return "Checking the ETL entry point" }
func (c *ScriptCheck) CanAutoFix() bool    { return false }
func (c *ScriptCheck) Fix() error          { return nil }
func (c *ScriptCheck) Severity() Severity  { return SeverityCritical }

func (c *ScriptCheck) Run() CheckResult {
	if !c.Layout.Script.Exists {
		return CheckResult{
			Status:     StatusCritical,
			Message:    fmt.Sprintf("%s not found", filepath.Base(c.Layout.Script.Path)),
			Details:    c.Layout.Script.Path,
			FixCommand: "Place the launcher next to the ETL script or set script in etlrun.yaml",
			Impact:     "The launch will print the banner without processing anything",
		}
	}
	return CheckResult{Status: StatusOK, Message: fmt.Sprintf("ETL script %s", filepath.Base(c.Layout.Script.Path))}
}

// InputCheck verifies the input folder holds files the ETL can ingest.
type InputCheck struct {
	Layout  *detector.Layout
	Matcher *inputs.Matcher
}

func (c *InputCheck) Name() string        { return "Input folder" }
func (c *InputCheck) Description() string { return "Checking for input files" }
func (c *InputCheck) CanAutoFix() bool    { return !c.Layout.InputFolder.Exists }
func (c *InputCheck) Fix() error          { return os.MkdirAll(c.Layout.InputFolder.Path, 0o755) }
func (c *InputCheck) Severity() Severity  { return SeverityMedium }

func (c *InputCheck) Run() CheckResult {
	folder := c.Layout.InputFolder.Path
	if _, err := os.Stat(folder); err != nil {
		return CheckResult{Status: StatusWarning, Message: "Input folder missing", Details: folder, FixCommand: "etlrun doctor --fix"}
	}
	files, err := c.Matcher.List(folder)
	if err != nil {
		return CheckResult{Status: StatusError, Message: "Input folder is unreadable", Details: err.Error()}
	}
	if len(files) == 0 {
		return CheckResult{
			Status:  StatusWarning,
			Message: "No input files",
			Details: fmt.Sprintf("expected %s in %s", strings.Join(c.Matcher.Patterns(), ", "), folder),
			Impact:  "The ETL has nothing to process",
		}
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	return CheckResult{Status: StatusOK, Message: fmt.Sprintf("%d input file(s)", len(files)), Details: strings.Join(names, ", ")}
}

// OutputCheck verifies the output folder exists and is writable.
type OutputCheck struct {
	Layout *detector.Layout
}

func (c *OutputCheck) Name() string        { return "Output folder" }
func (c *OutputCheck) Description() string { return "Checking the output folder" }
func (c *OutputCheck) CanAutoFix() bool    { return true }
func (c *OutputCheck) Fix() error          { return os.MkdirAll(c.Layout.OutputFolder.Path, 0o755) }
func (c *OutputCheck) Severity() Severity  { return SeverityMedium }

func (c *OutputCheck) Run() CheckResult {
	folder := c.Layout.OutputFolder.Path
	if _, err := os.Stat(folder); err != nil {
		return CheckResult{Status: StatusWarning, Message: "Output folder missing", Details: folder, FixCommand: "etlrun doctor --fix"}
	}
	f, err := os.CreateTemp(folder, ".etlrun-write-*")
	if err != nil {
		return CheckResult{Status: StatusError, Message: "Output folder is not writable", Details: err.Error(), Impact: "Results cannot be saved"}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return CheckResult{Status: StatusOK, Message: "Output folder writable"}
}

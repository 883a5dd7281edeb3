// Package launcher runs the ETL launch sequence: activate the optional
// virtual environment, provision dependencies, run the ETL script, announce
// completion and wait for a keypress.
//
// The sequence is strictly linear. The only branch is whether an activation
// artifact exists; installer failures are ignored and the completion banner
// is printed whatever the script's exit code. Strict mode reports a failed
// script through the returned error, after the banner and pause.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"etlrun/internal/cache"
	"etlrun/internal/detector"
	"etlrun/internal/digest"
	"etlrun/internal/provision"
	"etlrun/internal/venv"
	e "etlrun/pkg/errors"
	pexec "etlrun/pkg/exec"
	"etlrun/pkg/logger"
	"etlrun/pkg/terminal"
)

// Step names one stage of the launch.
type Step string

const (
	StepActivate         Step = "activate"
	StepUpgradeInstaller Step = "upgrade-installer"
	StepInstallManifest  Step = "install-manifest"
	StepRunScript        Step = "run-script"
	StepAnnounce         Step = "announce"
	StepPause            Step = "pause"
)

// BannerLines is the fixed completion notice. It is printed after every
// launch, including ones where the script failed.
var BannerLines = []string{
	"ETL process completed successfully!",
	"Check the output folder for results.",
}

// StepResult records one executed step.
type StepResult struct {
	Step     Step          `json:"step"`
	Command  []string      `json:"command,omitempty"`
	ExitCode int           `json:"exit_code"`
	Skipped  bool          `json:"skipped,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Result describes a whole launch.
type Result struct {
	RunID          string        `json:"run_id"`
	Steps          []StepResult  `json:"steps"`
	Activation     *venv.Result  `json:"activation,omitempty"`
	ScriptExitCode int           `json:"script_exit_code"`
	ScriptErr      error         `json:"-"`
	Duration       time.Duration `json:"duration"`
}

// Step returns the first recorded result for s.
func (r *Result) Step(s Step) (StepResult, bool) {
	for _, sr := range r.Steps {
		if sr.Step == s {
			return sr, true
		}
	}
	return StepResult{}, false
}

// Options configures a Sequencer.
type Options struct {
	Layout *detector.Layout
	Python string
	// Pause waits for a keypress after the banner.
	Pause bool
	// Strict turns a failed script into a returned error.
	Strict bool
	// SkipUnchangedInstall skips the manifest install when the manifest
	// digest matches the last successful install.
	SkipUnchangedInstall bool
}

// Activator applies an activation artifact to the environment.
type Activator interface {
	Activate(ctx context.Context, artifact string, kind detector.ActivationKind) (*venv.Result, error)
}

// Sequencer runs the launch sequence.
type Sequencer struct {
	opts      Options
	commander pexec.Commander
	activator Activator
	stamps    *cache.StampStore
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	pause     func() error
	newRunID  func() string
}

// Option customizes a Sequencer.
type Option func(*Sequencer)

// WithCommander sets how child processes are created.
func WithCommander(c pexec.Commander) Option {
	return func(s *Sequencer) { s.commander = c }
}

// WithActivator replaces the virtual environment activator.
func WithActivator(a Activator) Option {
	return func(s *Sequencer) { s.activator = a }
}

// WithIO sets the console streams given to the script and used for output.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(s *Sequencer) { s.stdin, s.stdout, s.stderr = stdin, stdout, stderr }
}

// WithPauser replaces the end-of-run keypress wait.
func WithPauser(pause func() error) Option {
	return func(s *Sequencer) { s.pause = pause }
}

// WithStampStore sets where install stamps are kept.
func WithStampStore(st *cache.StampStore) Option {
	return func(s *Sequencer) { s.stamps = st }
}

// New returns a Sequencer for opts.
func New(opts Options, options ...Option) *Sequencer {
	s := &Sequencer{
		opts:      opts,
		commander: pexec.Default,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		newRunID:  uuid.NewString,
	}
	for _, o := range options {
		o(s)
	}
	if s.activator == nil {
		s.activator = &venv.Activator{Commander: s.commander, Env: venv.ProcessEnv{}}
	}
	if s.stamps == nil {
		s.stamps = cache.NewStampStore(opts.Layout.Base)
	}
	if s.pause == nil {
		s.pause = func() error { return terminal.WaitForKey(s.stdin, s.stdout) }
	}
	return s
}

// Run executes the full sequence. The returned Result is always non-nil.
// Outside strict mode the error is nil however the steps went.
//
// Cancellation of ctx is ignored: every step runs once, and a launch is
// only stopped by closing its console.
func (s *Sequencer) Run(ctx context.Context) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	res := &Result{RunID: s.newRunID()}
	zl := logger.Zap().With(zap.String("run_id", res.RunID))
	zl.Debug("launch started", zap.String("base", s.opts.Layout.Base), zap.String("python", s.opts.Python))

	s.activate(ctx, res)
	s.provision(ctx, res)

	script := s.RunScript(ctx)
	res.Steps = append(res.Steps, script)
	res.ScriptExitCode = script.ExitCode
	res.ScriptErr = script.Err
	var strictErr error
	if s.opts.Strict {
		strictErr = s.strictError(res)
	}

	res.Steps = append(res.Steps, s.Announce())

	if s.opts.Pause {
		sr := StepResult{Step: StepPause, Started: time.Now()}
		sr.Err = s.pause()
		sr.Duration = time.Since(sr.Started)
		res.Steps = append(res.Steps, sr)
	}

	res.Duration = time.Since(start)
	zl.Debug("launch finished",
		zap.Int("script_exit_code", res.ScriptExitCode),
		zap.Duration("duration", res.Duration))

	return res, strictErr
}

func (s *Sequencer) activate(ctx context.Context, res *Result) {
	l := s.opts.Layout
	sr := StepResult{Step: StepActivate, Started: time.Now()}
	defer func() {
		sr.Duration = time.Since(sr.Started)
		res.Steps = append(res.Steps, sr)
	}()

	if !l.Activation.Exists {
		fmt.Fprintln(s.stdout, "No virtual environment found, using system Python.")
		sr.Skipped = true
		return
	}

	fmt.Fprintln(s.stdout, "Activating virtual environment...")
	logger.StartTimer("activate")
	act, err := s.activator.Activate(ctx, l.Activation.Path, l.Kind)
	logger.EndTimer("activate")
	res.Activation = act
	sr.Command = []string{l.Activation.Path}
	if err != nil {
		sr.Err = err
		logger.Warnf("virtual environment activation failed: %v", err)
	}
}

func (s *Sequencer) provision(ctx context.Context, res *Result) {
	l := s.opts.Layout
	inst := &provision.Installer{Commander: s.commander, Python: s.opts.Python, Dir: l.Base}

	fmt.Fprintln(s.stdout, "Installing dependencies...")
	logger.StartTimer("provision")
	defer logger.EndTimer("provision")

	up := inst.UpgradeInstaller(ctx)
	res.Steps = append(res.Steps, outcomeStep(StepUpgradeInstaller, up))

	manifest, derr := digest.ManifestDigest(l.Requirements.Path, digest.Blake3)
	if derr != nil {
		logger.Verbosef("manifest digest unavailable: %v", derr)
	}

	venvRoot := s.activeVenv(res)
	if s.opts.SkipUnchangedInstall && manifest != nil && manifest.Hash != digest.NoManifest &&
		s.stamps.Matches(manifest.Hash, s.opts.Python, venvRoot) {
		logger.Verbosef("requirements unchanged (%s), skipping install", manifest.Short())
		res.Steps = append(res.Steps, StepResult{Step: StepInstallManifest, Skipped: true, Started: time.Now()})
		return
	}

	in := inst.InstallManifest(ctx, l.Requirements.Path)
	res.Steps = append(res.Steps, outcomeStep(StepInstallManifest, in))

	if in.OK() && manifest != nil && manifest.Hash != digest.NoManifest {
		stamp := cache.Stamp{
			ManifestHash: manifest.Hash,
			Algorithm:    string(manifest.Algorithm),
			Interpreter:  s.opts.Python,
			Venv:         venvRoot,
			RunID:        res.RunID,
		}
		if err := s.stamps.Save(stamp); err != nil {
			logger.Verbosef("could not record install stamp: %v", err)
		}
	}
}

// activeVenv returns the root of the environment the installer runs in, or
// "" for the system interpreter.
func (s *Sequencer) activeVenv(res *Result) string {
	if res.Activation == nil || res.Activation.Method == venv.MethodNone {
		return ""
	}
	return detector.VenvRoot(s.opts.Layout.Activation.Path)
}

// RunScript runs the ETL script once with the console attached and the base
// folder as working directory. Its exit code is recorded, never acted on.
func (s *Sequencer) RunScript(ctx context.Context) StepResult {
	l := s.opts.Layout
	fmt.Fprintln(s.stdout, "Running ETL script...")

	sr := StepResult{
		Step:    StepRunScript,
		Command: []string{s.opts.Python, l.Script.Path},
		Started: time.Now(),
	}
	cmd := s.commander.CommandContext(ctx, s.opts.Python, l.Script.Path)
	cmd.Dir = l.Base
	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	logger.StartTimer("etl")
	sr.ExitCode, sr.Err = pexec.ExitCode(cmd)
	logger.EndTimer("etl")
	sr.Duration = time.Since(sr.Started)

	switch {
	case sr.Err != nil:
		logger.Warnf("could not start %s: %v", pexec.JoinArgs(sr.Command), sr.Err)
	case sr.ExitCode != 0:
		logger.Verbosef("ETL script exited with code %d", sr.ExitCode)
	}
	return sr
}

// Announce prints the completion banner.
func (s *Sequencer) Announce() StepResult {
	sr := StepResult{Step: StepAnnounce, Started: time.Now()}
	fmt.Fprintln(s.stdout)
	fmt.Fprint(s.stdout, terminal.Banner(BannerLines...))
	return sr
}

// strictError builds the strict-mode error. It runs before the banner, so a
// script that could not start is reported here and the CLI stays silent
// after the pause.
func (s *Sequencer) strictError(res *Result) error {
	script := s.opts.Layout.Script.Path
	if res.ScriptErr != nil {
		le := e.Wrap(res.ScriptErr, e.ErrInterpreterNotFound, "Could not start the ETL script").
			WithContext("python", s.opts.Python).
			WithContext("script", script)
		fmt.Fprintf(s.stderr, "%s %s: %v\n", terminal.IconError, le.Message, res.ScriptErr)
		if le.Suggestion != "" {
			fmt.Fprintf(s.stderr, "%s\n", le.Suggestion)
		}
		return le.MarkReported()
	}
	if res.ScriptExitCode != 0 {
		return e.ScriptFailed(script, res.ScriptExitCode)
	}
	return nil
}

func outcomeStep(step Step, o provision.Outcome) StepResult {
	return StepResult{
		Step:     step,
		Command:  o.Command,
		ExitCode: o.ExitCode,
		Started:  time.Now().Add(-o.Duration),
		Duration: o.Duration,
		Err:      o.StartErr,
	}
}

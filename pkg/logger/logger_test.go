package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

// withLogger swaps the package logger for one writing to a buffer.
func withLogger(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := defaultLogger
	defaultLogger = newLogger(level, zapcore.AddSync(&buf), false, nil)
	t.Cleanup(func() { defaultLogger = old })
	return &buf
}

func TestLogger_VerboseLevel(t *testing.T) {
	buf := withLogger(t, LevelVerbose)

	Info("info message")
	Verbose("verbose message")
	Debug("debug message - should be suppressed")
	StartTimer("op1")
	time.Sleep(5 * time.Millisecond)
	EndTimer("op1")

	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "verbose message") {
		t.Errorf("expected INFO and verbose logs, got: %s", out)
	}
	if strings.Contains(out, "should be suppressed") {
		t.Errorf("did not expect debug logs at verbose level")
	}
	if !strings.Contains(out, "Completed op1") {
		t.Errorf("expected timer completion, got: %s", out)
	}
}

func TestLogger_DebugLevel(t *testing.T) {
	buf := withLogger(t, LevelDebug)

	Debugf("debug %s", "enabled")
	Warn("warn message")
	Errorf("error %d", 42)

	out := buf.String()
	for _, want := range []string{"DEBUG", "debug enabled", "WARN", "ERROR", "error 42"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestLogger_InfoLevelHidesVerbose(t *testing.T) {
	buf := withLogger(t, LevelInfo)
	Verbosef("hidden %d", 1)
	StartTimer("op2")
	EndTimer("op2")
	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got: %s", buf.String())
	}
	if Enabled(LevelVerbose) {
		t.Error("verbose should not be enabled at info level")
	}
	if !Enabled(LevelWarn) {
		t.Error("warn should be enabled at info level")
	}
}

func TestLogger_NilSafe(t *testing.T) {
	old := defaultLogger
	defaultLogger = nil
	defer func() { defaultLogger = old }()

	Info("no logger")
	Warnf("no %s", "logger")
	EndTimer("missing")
	Close()
	if Zap() == nil {
		t.Error("Zap() should return a no-op logger before Initialize")
	}
}

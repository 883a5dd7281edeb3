package detector

import (
	"os"
	"path/filepath"
	"testing"

	"etlrun/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestDetect_EmptyProject(t *testing.T) {
	dir := t.TempDir()
	l, err := Detect(dir, config.Default())
	require.NoError(t, err)

	assert.Equal(t, ActivationNone, l.Kind)
	assert.False(t, l.Activation.Exists)
	assert.False(t, l.Requirements.Exists)
	assert.False(t, l.Script.Exists)
	assert.Equal(t, filepath.Join(l.Base, "run_etl.py"), l.Script.Path)
}

func TestDetect_BatchActivation(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.VenvActivate = filepath.Join("venv", "Scripts", "activate.bat")
	touch(t, filepath.Join(dir, "venv", "Scripts", "activate.bat"))
	touch(t, filepath.Join(dir, "requirements.txt"))
	touch(t, filepath.Join(dir, "run_etl.py"))

	l, err := Detect(dir, cfg)
	require.NoError(t, err)
	assert.Equal(t, ActivationBatch, l.Kind)
	assert.True(t, l.Activation.Exists)
	assert.True(t, l.Requirements.Exists)
	assert.True(t, l.Script.Exists)
	assert.Equal(t, filepath.Join(l.Base, "venv"), VenvRoot(l.Activation.Path))
}

func TestDetect_AbsolutePathsKept(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	script := filepath.Join(other, "etl.py")
	touch(t, script)

	cfg := config.Default()
	cfg.Script = script
	l, err := Detect(dir, cfg)
	require.NoError(t, err)
	assert.Equal(t, script, l.Script.Path)
	assert.True(t, l.Script.Exists)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ActivationBatch, KindOf(`venv\Scripts\activate.BAT`))
	assert.Equal(t, ActivationBatch, KindOf("activate.cmd"))
	assert.Equal(t, ActivationShell, KindOf("venv/bin/activate"))
}

func TestVenvPython(t *testing.T) {
	got := VenvPython(filepath.Join("p", "venv", "bin", "activate"))
	assert.Equal(t, filepath.Join("p", "venv", "bin"), filepath.Dir(got))
	assert.Contains(t, filepath.Base(got), "python")
}

func TestBaseDir_Override(t *testing.T) {
	dir := t.TempDir()
	got, err := BaseDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestBaseDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ETLRUN_HOME", dir)
	got, err := BaseDir("")
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestBaseDir_Executable(t *testing.T) {
	t.Setenv("ETLRUN_HOME", "")
	got, err := BaseDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

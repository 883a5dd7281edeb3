package venv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"etlrun/internal/detector"
	"etlrun/internal/testutil/fakeexec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelperProcess(t *testing.T) { fakeexec.HelperMain() }

func TestActivate_NoArtifact(t *testing.T) {
	fc := &fakeexec.Commander{}
	env := MapEnv{"PATH": "/usr/bin"}
	a := &Activator{Commander: fc, Env: env}

	res, err := a.Activate(context.Background(), "", detector.ActivationNone)
	require.NoError(t, err)
	assert.Equal(t, MethodNone, res.Method)
	assert.Empty(t, fc.Calls(), "nothing runs without an artifact")
	assert.Equal(t, MapEnv{"PATH": "/usr/bin"}, env)
}

func TestActivate_ScriptCapture(t *testing.T) {
	dump := "PATH=/proj/venv/bin:/usr/bin\nVIRTUAL_ENV=/proj/venv\nHOME=/home/op\nSHLVL=2\n_=/usr/bin/env\n"
	fc := &fakeexec.Commander{Respond: func(string, []string) fakeexec.Response {
		return fakeexec.Response{Stdout: dump}
	}}
	env := MapEnv{"PATH": "/usr/bin", "HOME": "/home/op", "PYTHONHOME": "/opt/py"}
	a := &Activator{Commander: fc, Env: env}

	res, err := a.Activate(context.Background(), "/proj/venv/bin/activate", detector.ActivationShell)
	require.NoError(t, err)
	assert.Equal(t, MethodScript, res.Method)
	assert.Equal(t, MapEnv{"PATH": "/proj/venv/bin:/usr/bin", "VIRTUAL_ENV": "/proj/venv", "HOME": "/home/op"}, env)

	calls := fc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sh", calls[0].Name)
	assert.Equal(t, "/proj/venv/bin/activate", calls[0].Args[len(calls[0].Args)-1])
}

func TestActivate_BatchCaptureFoldsCase(t *testing.T) {
	dump := "Path=C:\\proj\\venv\\Scripts;C:\\Windows\r\nVIRTUAL_ENV=C:\\proj\\venv\r\nPROMPT=(venv) $P$G\r\n"
	fc := &fakeexec.Commander{Respond: func(string, []string) fakeexec.Response {
		return fakeexec.Response{Stdout: dump}
	}}
	env := MapEnv{"PATH": "C:\\Windows"}
	a := &Activator{Commander: fc, Env: env}

	res, err := a.Activate(context.Background(), `C:\proj\venv\Scripts\activate.bat`, detector.ActivationBatch)
	require.NoError(t, err)
	assert.Equal(t, MethodScript, res.Method)
	assert.Equal(t, "C:\\proj\\venv\\Scripts;C:\\Windows", env["PATH"], "existing spelling is kept")
	assert.NotContains(t, env, "PROMPT")

	calls := fc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "cmd", calls[0].Name)
	assert.Contains(t, calls[0].Args, `C:\proj\venv\Scripts\activate.bat`)
}

func TestActivate_FailedCaptureFallsBackToLayout(t *testing.T) {
	fc := &fakeexec.Commander{Respond: func(string, []string) fakeexec.Response {
		return fakeexec.Response{ExitCode: 1}
	}}
	env := MapEnv{"PATH": "/usr/bin", "PYTHONHOME": "/opt/py"}
	a := &Activator{Commander: fc, Env: env}

	artifact := filepath.Join("proj", "venv", "bin", "activate")
	res, err := a.Activate(context.Background(), artifact, detector.ActivationShell)
	require.NoError(t, err, "activation is best-effort")
	assert.Equal(t, MethodLayout, res.Method)
	assert.Error(t, res.CaptureErr)
	assert.Equal(t, filepath.Join("proj", "venv"), env["VIRTUAL_ENV"])
	assert.Equal(t, filepath.Join("proj", "venv", "bin")+string(os.PathListSeparator)+"/usr/bin", env["PATH"])
	assert.NotContains(t, env, "PYTHONHOME")
}

func TestActivate_EmptyDumpFallsBack(t *testing.T) {
	fc := &fakeexec.Commander{}
	env := MapEnv{}
	a := &Activator{Commander: fc, Env: env}

	res, err := a.Activate(context.Background(), filepath.Join("venv", "bin", "activate"), detector.ActivationShell)
	require.NoError(t, err)
	assert.Equal(t, MethodLayout, res.Method)
	assert.Equal(t, filepath.Join("venv", "bin"), env["PATH"])
}

func TestActivate_MissingShellFallsBack(t *testing.T) {
	fc := &fakeexec.Commander{Respond: func(string, []string) fakeexec.Response {
		return fakeexec.Response{NotFound: true}
	}}
	env := MapEnv{"PATH": "x"}
	a := &Activator{Commander: fc, Env: env}

	res, err := a.Activate(context.Background(), filepath.Join("venv", "Scripts", "activate.bat"), detector.ActivationBatch)
	require.NoError(t, err)
	assert.Equal(t, MethodLayout, res.Method)
}

func TestParseEnvDump(t *testing.T) {
	got := ParseEnvDump("A=1\r\n=C:=C:\\\nnot a var\nB=x=y\n\nC=\n")
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y", "C": ""}, got)
}

func TestParseEnvDump_NulSeparated(t *testing.T) {
	got := ParseEnvDump("A=1\x00MULTI=first\nINJECTED=oops\x00B=x\r\x00")
	assert.Equal(t, map[string]string{"A": "1", "MULTI": "first\nINJECTED=oops", "B": "x\r"}, got)
}

func TestActivate_MultiLineValueIsNotSplit(t *testing.T) {
	dump := "PATH=/proj/venv/bin:/usr/bin\x00VIRTUAL_ENV=/proj/venv\x00NOTE=first\nINJECTED=oops\x00"
	fc := &fakeexec.Commander{Respond: func(string, []string) fakeexec.Response {
		return fakeexec.Response{Stdout: dump}
	}}
	env := MapEnv{"PATH": "/usr/bin", "NOTE": "first\nINJECTED=oops"}
	a := &Activator{Commander: fc, Env: env}

	res, err := a.Activate(context.Background(), "/proj/venv/bin/activate", detector.ActivationShell)
	require.NoError(t, err)
	assert.Equal(t, MethodScript, res.Method)
	assert.NotContains(t, env, "INJECTED")
	assert.Equal(t, "first\nINJECTED=oops", env["NOTE"])
	assert.Equal(t, "/proj/venv", env["VIRTUAL_ENV"])
}

func TestDiff(t *testing.T) {
	before := map[string]string{"PATH": "a", "KEEP": "1", "PYTHONHOME": "h", "GONE": "2"}
	after := map[string]string{"PATH": "b:a", "KEEP": "1", "NEW": "n", "PWD": "/tmp"}

	c := Diff(before, after, false)
	assert.Equal(t, map[string]string{"PATH": "b:a", "NEW": "n"}, c.Set)
	assert.Equal(t, []string{"PYTHONHOME"}, c.Unset, "only known activation unsets are applied")
	assert.False(t, c.Empty())
	assert.True(t, Diff(before, before, false).Empty())
}

func TestCaptureCommand(t *testing.T) {
	name, args := CaptureCommand(`C:\my proj\venv\Scripts\activate.bat`, detector.ActivationBatch)
	assert.Equal(t, "cmd", name)
	assert.Equal(t, []string{"/d", "/c", "chcp", "65001", ">nul", "&", "call", `C:\my proj\venv\Scripts\activate.bat`, ">nul", "&&", "set"}, args)

	name, args = CaptureCommand("/p/venv/bin/activate", detector.ActivationShell)
	assert.Equal(t, "sh", name)
	assert.Contains(t, args[1], "env -0")
	assert.Equal(t, "/p/venv/bin/activate", args[len(args)-1])
}

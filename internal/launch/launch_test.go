package launch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/tsh/internal/ast"
	"github.com/marcelocantos/tsh/internal/exitcode"
	"github.com/marcelocantos/tsh/internal/procenv"
	"github.com/marcelocantos/tsh/internal/redirect"
)

func testEnv(t *testing.T) *procenv.Env {
	t.Helper()
	return procenv.New(t.TempDir(), os.Environ())
}

func launch(t *testing.T, env *procenv.Env, s *ast.Simple) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	status := New(nil).Launch(context.Background(), s, env, redirect.Stdio{Out: &stdout, Err: &stderr})
	return status, stdout.String(), stderr.String()
}

func TestLaunchExitStatus(t *testing.T) {
	env := testEnv(t)

	status, _, _ := launch(t, env, ast.Command("true"))
	assert.Equal(t, 0, status)

	status, _, _ = launch(t, env, ast.Command("false"))
	assert.Equal(t, 1, status)

	status, _, _ = launch(t, env, ast.Command("sh", "-c", "exit 42"))
	assert.Equal(t, 42, status)
}

func TestLaunchSignaled(t *testing.T) {
	status, _, _ := launch(t, testEnv(t), ast.Command("sh", "-c", "kill -TERM $$"))
	assert.Equal(t, exitcode.SignalBase+15, status)
}

func TestLaunchUsesSessionState(t *testing.T) {
	env := testEnv(t)
	require.NoError(t, env.Setenv("TSH_LAUNCH_VAR", "from-session"))

	s := &ast.Simple{
		Verb: ast.Lit("sh"),
		Args: []ast.Word{ast.Lit("-c"), ast.Lit(`printf '%s|%s|%s' "$0" "$TSH_LAUNCH_VAR" "$(pwd)"`), ast.Var("TSH_LAUNCH_VAR")},
	}
	status, out, _ := launch(t, env, s)
	require.Equal(t, 0, status)

	dir, err := filepath.EvalSymlinks(env.Dir())
	require.NoError(t, err)
	parts := strings.Split(out, "|")
	require.Len(t, parts, 3)
	assert.Equal(t, "from-session", parts[0], "argument words are resolved")
	assert.Equal(t, "from-session", parts[1], "environment is passed to the child")
	assert.Equal(t, dir, parts[2], "child runs in the session directory")
}

func TestLaunchNotFound(t *testing.T) {
	status, _, stderr := launch(t, testEnv(t), ast.Command("tsh-definitely-not-a-program"))
	assert.Equal(t, exitcode.NotFound, status)
	assert.Contains(t, stderr, "tsh-definitely-not-a-program: command not found")
}

func TestLaunchNotExecutable(t *testing.T) {
	env := testEnv(t)
	script := filepath.Join(env.Dir(), "script.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho hi\n"), 0644))

	status, _, stderr := launch(t, env, ast.Command("./script.sh"))
	assert.Equal(t, exitcode.NotExecutable, status)
	assert.Contains(t, stderr, "permission denied")

	require.NoError(t, os.Chmod(script, 0755))
	status, out, _ := launch(t, env, ast.Command("./script.sh"))
	assert.Equal(t, 0, status)
	assert.Equal(t, "hi\n", out)
}

func TestLaunchRedirectFailure(t *testing.T) {
	env := testEnv(t)
	s := ast.Command("cat")
	s.In = ast.Lit("missing.txt")

	status, _, stderr := launch(t, env, s)
	assert.Equal(t, exitcode.Failure, status)
	assert.Contains(t, stderr, "missing.txt")
}

func TestLaunchRedirectsToFiles(t *testing.T) {
	env := testEnv(t)
	s := ast.Command("sh", "-c", "echo out; echo err >&2")
	s.Out = ast.Lit("both.log")
	s.Err = ast.Lit("both.log")

	status, stdout, stderr := launch(t, env, s)
	require.Equal(t, 0, status)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)

	data, err := os.ReadFile(filepath.Join(env.Dir(), "both.log"))
	require.NoError(t, err)
	assert.Equal(t, "out\nerr\n", string(data))
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.Mkdir(bin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "tool"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "noexec"), []byte("#!/bin/sh\n"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(bin, "adir"), 0755))

	env := procenv.New(dir, []string{"PATH=bin"})

	p, err := LookPath("tool", env)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bin, "tool"), p)

	_, err = LookPath("noexec", env)
	assert.True(t, errors.Is(err, ErrNotExecutable))

	_, err = LookPath("adir", env)
	assert.True(t, errors.Is(err, ErrIsDirectory))

	_, err = LookPath("missing", env)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = LookPath("", env)
	assert.True(t, errors.Is(err, ErrNotFound))

	p, err = LookPath("bin/tool", env)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bin, "tool"), p)
}

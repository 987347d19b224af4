package toolserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/tsh/internal/audit"
	"github.com/marcelocantos/tsh/internal/parser"
	"github.com/marcelocantos/tsh/internal/procenv"
)

func newServer(t *testing.T, logger *audit.Logger) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	return New(procenv.New(dir, os.Environ()), logger, "test"), dir
}

func TestRunKeepsSessionState(t *testing.T) {
	s, dir := newServer(t, nil)
	ctx := context.Background()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	res, err := s.Run(ctx, "cd sub && GREETING=hi", "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, filepath.Join(dir, "sub"), res.Dir)

	res, err = s.Run(ctx, `echo "$GREETING from $PWD"`, "")
	require.NoError(t, err)
	assert.Equal(t, "hi from "+filepath.Join(dir, "sub")+"\n", res.Stdout)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.NotEqual(t, filepath.Join(dir, "sub"), wd, "server process directory must not change")
}

func TestRunCapturesOutputAndStatus(t *testing.T) {
	s, _ := newServer(t, nil)
	_, err := s.Run(context.Background(), "echo err >&2", "")
	require.Error(t, err, "descriptor duplication is not supported")
	assert.False(t, parser.IsIncomplete(err))

	res, err := s.Run(context.Background(), "echo out; sh -c 'echo err >&2; exit 3'", "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Status)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)

	text := res.String()
	assert.Contains(t, text, "exit status: 3")
	assert.Contains(t, text, "--- stdout ---\nout\n")
	assert.Contains(t, text, "--- stderr ---\nerr\n")
}

func TestRunExitDoesNotStopServer(t *testing.T) {
	s, _ := newServer(t, nil)
	res, err := s.Run(context.Background(), "exit 4; echo unreachable", "")
	require.NoError(t, err)
	assert.True(t, res.Exited)
	assert.Equal(t, 4, res.Status)
	assert.Empty(t, res.Stdout)

	res, err = s.Run(context.Background(), "echo still here", "")
	require.NoError(t, err)
	assert.Equal(t, "still here\n", res.Stdout)
}

func TestRunDir(t *testing.T) {
	s, dir := newServer(t, nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "work"), 0755))

	res, err := s.Run(context.Background(), "touch made", "work")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Status)
	assert.FileExists(t, filepath.Join(dir, "work", "made"))

	_, err = s.Run(context.Background(), "true", "missing")
	assert.Error(t, err)
}

func TestRunDirUnchangedOnSyntaxError(t *testing.T) {
	s, dir := newServer(t, nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "work"), 0755))

	_, err := s.Run(context.Background(), "echo 'open", "work")
	require.Error(t, err)

	res, err := s.Run(context.Background(), "true", "")
	require.NoError(t, err)
	assert.Equal(t, dir, res.Dir)
}

func TestRunParallelOutput(t *testing.T) {
	s, _ := newServer(t, nil)
	res, err := s.Run(context.Background(), "echo a & echo b", "")
	require.NoError(t, err)
	lines := strings.Fields(res.Stdout)
	assert.ElementsMatch(t, []string{"a", "b"}, lines)
}

func TestRunSerializesCalls(t *testing.T) {
	s, _ := newServer(t, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Run(context.Background(), "N=x; true", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestRunWritesAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := audit.NewLogger(path)
	require.NoError(t, err)
	s, dir := newServer(t, logger)

	_, err = s.Run(context.Background(), "false || true", "")
	require.NoError(t, err)

	entries, err := audit.Tail(path, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "false || true", e.Command)
	assert.Equal(t, 0, e.ExitCode)
	assert.Equal(t, dir, e.Cwd)
	assert.Equal(t, []audit.Leaf{{Verb: "false", Status: 1}, {Verb: "true", Status: 0}}, e.Leaves)
}

func TestParseYAML(t *testing.T) {
	text, err := ParseYAML("ls | wc -l")
	require.NoError(t, err)
	assert.Contains(t, text, "op:")
	assert.Contains(t, text, "verb: ls")
	assert.Contains(t, text, "verb: wc")

	_, err = ParseYAML("   ")
	assert.Error(t, err)
	_, err = ParseYAML("ls |")
	assert.Error(t, err)
}

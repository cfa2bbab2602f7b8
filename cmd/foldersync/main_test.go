package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutenorio/FolderTracker/internal/action"
)

type cliEnv struct {
	projects string
	a, b     string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := cliEnv{
		projects: filepath.Join(dir, "projects"),
		a:        filepath.Join(dir, "a"),
		b:        filepath.Join(dir, "b"),
	}
	require.NoError(t, os.MkdirAll(env.a, 0o755))
	require.NoError(t, os.MkdirAll(env.b, 0o755))
	return env
}

// run executes the CLI in-process and returns stdout. Logs are dropped.
func (env cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--projects-dir", env.projects))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (env cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := env.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCLI_ProjectLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "project", "create", "docs", env.a, env.b, "--cron", "@every 1h", "--ignore", "**/.DS_Store")
	assert.Contains(t, out, "created")

	_, err := env.run(t, "project", "create", "docs", env.a, env.b)
	assert.Error(t, err)

	out = env.mustRun(t, "project", "list")
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, "@every 1h")

	out = env.mustRun(t, "project", "show", "docs")
	assert.Contains(t, out, env.a)
	assert.Contains(t, out, "keep-both")
	assert.Contains(t, out, "**/.DS_Store")

	env.mustRun(t, "project", "save-as", "docs", "docs-copy")
	out = env.mustRun(t, "project", "list")
	assert.Contains(t, out, "docs-copy")

	other := filepath.Join(filepath.Dir(env.a), "c")
	env.mustRun(t, "project", "set-folder", "docs-copy", "b", other)
	out = env.mustRun(t, "project", "show", "docs-copy")
	assert.Contains(t, out, other)

	_, err = env.run(t, "project", "set-folder", "docs-copy", "z", other)
	assert.Error(t, err)

	_, err = env.run(t, "project", "show", "missing")
	assert.Error(t, err)
}

func TestCLI_StatusAndSync(t *testing.T) {
	env := newCLIEnv(t)
	writeFile(t, filepath.Join(env.a, "notes.txt"), "hello")
	writeFile(t, filepath.Join(env.b, "photos", "cat.jpg"), "meow")
	env.mustRun(t, "project", "create", "docs", env.a, env.b)

	out := env.mustRun(t, "status", "docs")
	assert.Contains(t, out, "copy file to B")
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "create folder in A")
	assert.NoFileExists(t, filepath.Join(env.b, "notes.txt"))

	out = env.mustRun(t, "sync", "docs")
	assert.Contains(t, out, "snapshot")
	assert.Equal(t, "hello", readFile(t, filepath.Join(env.b, "notes.txt")))
	assert.Equal(t, "meow", readFile(t, filepath.Join(env.a, "photos", "cat.jpg")))

	out = env.mustRun(t, "status", "docs")
	assert.Contains(t, out, "0 pending")

	out = env.mustRun(t, "history", "list", "docs")
	assert.Contains(t, out, "KEY (UTC)")

	out = env.mustRun(t, "state", "docs", "common")
	assert.Contains(t, out, "photos/cat.jpg")
}

func TestCLI_SyncResolveConflict(t *testing.T) {
	env := newCLIEnv(t)
	writeFile(t, filepath.Join(env.a, "notes.txt"), "base")
	env.mustRun(t, "project", "create", "docs", env.a, env.b)
	env.mustRun(t, "sync", "docs")

	writeFile(t, filepath.Join(env.a, "notes.txt"), "from a")
	writeFile(t, filepath.Join(env.b, "notes.txt"), "from b")

	out := env.mustRun(t, "sync", "docs", "--dry-run", "--json")
	var dry syncOutput
	require.NoError(t, json.Unmarshal([]byte(out), &dry))
	assert.True(t, dry.DryRun)
	assert.Equal(t, []string{"notes.txt"}, dry.Conflicts)
	assert.Equal(t, action.ConflictKeepBoth, dry.Actions["notes.txt"])

	out = env.mustRun(t, "sync", "docs", "--resolve", "notes.txt=keep-a", "--json")
	var done syncOutput
	require.NoError(t, json.Unmarshal([]byte(out), &done))
	assert.False(t, done.DryRun)
	assert.NotEmpty(t, done.Key)
	assert.Equal(t, action.ConflictKeepA, done.Actions["notes.txt"])
	assert.Equal(t, "from a", readFile(t, filepath.Join(env.b, "notes.txt")))

	_, err := env.run(t, "sync", "docs", "--resolve", "notes.txt=copy file to A")
	assert.ErrorIs(t, err, action.ErrUnknown)
}

func TestCLI_HistoryExportImportTrim(t *testing.T) {
	env := newCLIEnv(t)
	writeFile(t, filepath.Join(env.a, "one.txt"), "1")
	env.mustRun(t, "project", "create", "docs", env.a, env.b)
	env.mustRun(t, "sync", "docs")
	writeFile(t, filepath.Join(env.a, "two.txt"), "2")
	env.mustRun(t, "sync", "docs")

	export := filepath.Join(t.TempDir(), "history.json")
	env.mustRun(t, "history", "export", "docs", "-o", export)
	assert.Contains(t, readFile(t, export), "two.txt")

	out := env.mustRun(t, "history", "trim", "docs", "--keep", "1", "--dry-run")
	assert.Contains(t, out, "1 removed, 1 kept")
	out = env.mustRun(t, "history", "list", "docs")
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(out), "\n")))

	out = env.mustRun(t, "history", "trim", "docs", "--keep", "1")
	assert.Contains(t, out, "1 removed, 1 kept")

	out = env.mustRun(t, "history", "list", "docs")
	assert.Equal(t, 2, len(strings.Split(strings.TrimSpace(out), "\n")))

	out = env.mustRun(t, "history", "import", "docs", export)
	assert.Contains(t, out, "2 snapshots")

	out = env.mustRun(t, "history", "show", "docs", "--json")
	assert.Contains(t, out, "two.txt")

	_, err := env.run(t, "history", "show", "docs", "1999-01-01 00:00:00")
	assert.Error(t, err)

	_, err = env.run(t, "history", "trim", "docs")
	assert.Error(t, err)
}

func TestParseResolutions(t *testing.T) {
	got, err := parseResolutions([]string{"a.txt=keep-a", "dir/b.txt=both"})
	require.NoError(t, err)
	assert.Equal(t, map[string]action.Action{
		"a.txt":     action.ConflictKeepA,
		"dir/b.txt": action.ConflictKeepBoth,
	}, got)

	_, err = parseResolutions([]string{"no-separator"})
	assert.Error(t, err)
	_, err = parseResolutions([]string{"=keep-a"})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "version")
	assert.Equal(t, detailedVersion(), strings.TrimSpace(out))
}

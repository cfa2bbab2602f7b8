package scanner

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutenorio/FolderTracker/internal/fs"
	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

func memTree(t *testing.T, files map[string]string, dirs ...string) *fs.AferoFS {
	t.Helper()
	f := fs.NewMem()
	for _, d := range dirs {
		require.NoError(t, f.MkdirAll(d))
	}
	for p, content := range files {
		require.NoError(t, afero.WriteFile(f.Afero(), p, []byte(content), 0o644))
	}
	return f
}

func TestScan_FilesAndFolders(t *testing.T) {
	f := memTree(t, map[string]string{
		"/root/hello.txt":        "hello",
		"/root/docs/a/notes.txt": "notes",
	}, "/root/empty")

	state, warnings := New(f).Scan("/root")
	require.Empty(t, warnings)

	assert.Equal(t, []string{"docs", "docs/a", "docs/a/notes.txt", "empty", "hello.txt"}, state.Paths())

	hello := state["hello.txt"]
	assert.Equal(t, snapshot.File, hello.Type)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hello.Hash)
	assert.EqualValues(t, 5, hello.Size)

	docs := state["docs/a"]
	assert.Equal(t, snapshot.Folder, docs.Type)
	assert.Equal(t, "docs/a", docs.Hash)
	assert.Zero(t, docs.Size)
	assert.Equal(t, "empty", state["empty"].Hash)
}

func TestScan_MissingRoot(t *testing.T) {
	state, warnings := New(fs.NewMem()).Scan("/nowhere")
	assert.Empty(t, state)
	assert.Empty(t, warnings)
}

func TestScan_RootIsFile(t *testing.T) {
	f := memTree(t, map[string]string{"/file": "x"})
	state, warnings := New(f).Scan("/file")
	assert.Empty(t, state)
	require.Len(t, warnings, 1)
	assert.Equal(t, fs.KindNotDir, fs.Classify(warnings[0]))
}

func TestScan_Ignore(t *testing.T) {
	f := memTree(t, map[string]string{
		"/r/keep.txt":            "k",
		"/r/.DS_Store":           "junk",
		"/r/sub/.DS_Store":       "junk",
		"/r/node_modules/x/y.js": "js",
	})

	state, warnings := New(f, WithIgnore("**/.DS_Store", "node_modules")).Scan("/r")
	require.Empty(t, warnings)
	assert.Equal(t, []string{"keep.txt", "sub"}, state.Paths())
}

func TestScan_LargeFileHashIsStreamed(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789abcdef"), 3*ChunkSize/16+7)
	f := fs.NewMem()
	require.NoError(t, afero.WriteFile(f.Afero(), "/r/big.bin", content, 0o644))

	state, _ := New(f).Scan("/r")
	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), state["big.bin"].Hash)
	assert.EqualValues(t, len(content), state["big.bin"].Size)
}

func TestScan_BrokenSymlinkIsWarning(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.txt"), []byte("ok"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")))

	state, warnings := New(fs.New()).Scan(root)
	assert.Equal(t, []string{"ok.txt"}, state.Paths())
	require.Len(t, warnings, 1)
	assert.Equal(t, "dangling", warnings[0].Path)
	assert.True(t, fs.IsNotExist(warnings[0]))
}

func TestScan_SymlinkedFolderNotDescended(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	state, warnings := New(fs.New()).Scan(root)
	require.Empty(t, warnings)
	assert.Equal(t, []string{"link"}, state.Paths())
	assert.Equal(t, snapshot.Folder, state["link"].Type)
}

func TestScan_LinkedRootIsScanned(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "docs", "keep.txt"), []byte("keep"), 0o644))
	root := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(target, root))

	state, warnings := New(fs.New()).Scan(root)
	require.Empty(t, warnings)
	assert.Equal(t, []string{"docs", "docs/keep.txt"}, state.Paths())
	assert.Equal(t, "docs", state["docs"].Hash)
}

func skipIfPermissionsIgnored(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file modes are not enforced for this user")
	}
}

func TestScan_UnreadableFileIsWarning(t *testing.T) {
	skipIfPermissionsIgnored(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.txt"), []byte("ok"), 0o644))
	locked := filepath.Join(root, "locked.txt")
	require.NoError(t, os.WriteFile(locked, []byte("secret"), 0o000))

	state, warnings := New(fs.New()).Scan(root)
	assert.Equal(t, []string{"ok.txt"}, state.Paths())
	require.Len(t, warnings, 1)
	assert.Equal(t, "locked.txt", warnings[0].Path)
	assert.Equal(t, fs.KindPermission, fs.Classify(warnings[0].Err))
}

func TestScan_UnreadableFolderKeepsEntry(t *testing.T) {
	skipIfPermissionsIgnored(t)
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.MkdirAll(locked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(locked, "inner.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	state, warnings := New(fs.New()).Scan(root)
	assert.Equal(t, []string{"locked"}, state.Paths())
	assert.Equal(t, snapshot.Folder, state["locked"].Type)
	require.Len(t, warnings, 1)
	assert.Equal(t, "locked", warnings[0].Path)
}

func TestFingerprint(t *testing.T) {
	f := memTree(t, map[string]string{"/r/a/b.txt": "hello"})
	s := New(f)

	e, err := s.Fingerprint("/r", "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", e.Hash)

	e, err = s.Fingerprint("/r", "a")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Folder, e.Type)
	assert.Equal(t, "a", e.Hash)

	_, err = s.Fingerprint("/r", "missing")
	assert.True(t, fs.IsNotExist(err))
}

func TestValidatePatterns(t *testing.T) {
	assert.NoError(t, ValidatePatterns([]string{"**/*.tmp", "build"}))
	assert.Error(t, ValidatePatterns([]string{"[unclosed"}))
}

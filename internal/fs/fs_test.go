package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile_PreservesMetadata(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "nested", "deeper", "dst.txt")

	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o640))
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	f := New()
	require.NoError(t, f.CopyFile(context.Background(), src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	st, err := f.Stat(dst)
	require.NoError(t, err)
	assert.True(t, st.MTime.Equal(mtime))
	assert.Equal(t, os.FileMode(0o640), st.Mode.Perm())
}

func TestCopyFile_ReplacesReadOnlyDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o444))

	require.NoError(t, New().CopyFile(context.Background(), src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCopyFile_Errors(t *testing.T) {
	f := NewMem()
	require.NoError(t, f.MkdirAll("/root/dir"))

	err := f.CopyFile(context.Background(), "/root/missing.txt", "/root/out.txt")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, Classify(err))

	err = f.CopyFile(context.Background(), "/root/dir", "/root/out")
	require.Error(t, err)
	assert.Equal(t, KindIsDir, Classify(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.CopyFile(ctx, "/root/dir", "/root/out"), context.Canceled)
}

func TestWriteFile_Atomic(t *testing.T) {
	f := NewMem()
	require.NoError(t, f.WriteFile("/p/history.json", []byte("one")))
	require.NoError(t, f.WriteFile("/p/history.json", []byte("two")))

	data, err := f.ReadFile("/p/history.json")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	exists, err := afero.Exists(f.Afero(), "/p/.tmp-history.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStat_MemFallsBackToMTime(t *testing.T) {
	f := NewMem()
	require.NoError(t, f.WriteFile("/x.txt", []byte("abc")))

	st, err := f.Stat("/x.txt")
	require.NoError(t, err)
	assert.False(t, st.IsDir)
	assert.EqualValues(t, 3, st.Size)
	assert.Equal(t, st.MTime, st.CTime)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Kind(""), Classify(nil))
	assert.Equal(t, KindNotFound, Classify(&os.PathError{Op: "open", Path: "x", Err: os.ErrNotExist}))
	assert.Equal(t, KindPermission, Classify(&os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}))
	assert.Equal(t, KindNotDir, Classify(ErrNotDir("remove", "x")))
	assert.Equal(t, KindOther, Classify(assert.AnError))

	opErr := NewOpError("delete", "a/b", os.ErrNotExist)
	assert.Equal(t, KindNotFound, opErr.Kind)
	assert.ErrorIs(t, opErr, os.ErrNotExist)
}

func TestCopyFile_ReplacesDanglingLinkAtDestination(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(t.TempDir(), "escaped.txt")
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))
	require.NoError(t, os.Symlink(outside, dst))

	require.NoError(t, New().CopyFile(context.Background(), src, dst))

	st, err := os.Lstat(dst)
	require.NoError(t, err)
	assert.Zero(t, st.Mode()&os.ModeSymlink)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.NoFileExists(t, outside)
}

func TestWalk_LinkedRootReportsPathsUnderRoot(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "sub", "x.txt"), []byte("x"), 0o644))
	root := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(target, root))

	var seen []string
	err := New().Walk(root, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		seen = append(seen, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "sub"),
		filepath.Join(root, "sub", "x.txt"),
	}, seen)
}

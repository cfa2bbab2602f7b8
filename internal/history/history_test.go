package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutenorio/FolderTracker/internal/fs"
	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

func sampleState() snapshot.FolderState {
	return snapshot.FolderState{
		"docs":           {Type: snapshot.Folder, Hash: "docs", MTime: time.Unix(1700000000, 0)},
		"docs/notes.txt": {Type: snapshot.File, Hash: "abc", Size: 3, MTime: time.Unix(1700000100, 250), CTime: time.Unix(1700000000, 0)},
	}
}

func TestAppend_StrictlyIncreasingKeys(t *testing.T) {
	h := New()
	now := time.Date(2024, 5, 1, 10, 0, 0, 900, time.UTC)

	k1 := h.Append(now, sampleState())
	k2 := h.Append(now, sampleState())
	k3 := h.Append(now.Add(-time.Hour), snapshot.FolderState{})

	assert.Equal(t, "2024-05-01 10:00:00", k1)
	assert.Equal(t, "2024-05-01 10:00:01", k2)
	assert.Equal(t, "2024-05-01 10:00:02", k3)
	assert.Equal(t, []string{k1, k2, k3}, h.Keys())

	k4 := h.Append(now.Add(time.Minute), nil)
	assert.Equal(t, "2024-05-01 10:01:00", k4)
	assert.Equal(t, 4, h.Len())
}

func TestAppend_UsesUTC(t *testing.T) {
	h := New()
	loc := time.FixedZone("UTC+2", 2*60*60)
	key := h.Append(time.Date(2024, 5, 1, 12, 0, 0, 0, loc), nil)
	assert.Equal(t, "2024-05-01 10:00:00", key)
}

func TestBaselineAndLatest(t *testing.T) {
	h := New()
	assert.Empty(t, h.Baseline())
	_, _, ok := h.Latest()
	assert.False(t, ok)

	h.Append(time.Unix(100, 0), snapshot.FolderState{"old": {Type: snapshot.File, Hash: "o"}})
	key := h.Append(time.Unix(200, 0), sampleState())

	latestKey, state, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, key, latestKey)
	assert.Equal(t, sampleState().Paths(), state.Paths())

	// Callers get copies.
	state["injected"] = snapshot.Entry{}
	assert.NotContains(t, h.Baseline(), "injected")
}

func TestDelete(t *testing.T) {
	h := New()
	k1 := h.Append(time.Unix(100, 0), nil)
	k2 := h.Append(time.Unix(200, 0), nil)

	assert.True(t, h.Delete(k1))
	assert.False(t, h.Delete(k1))
	assert.Equal(t, []string{k2}, h.Keys())
}

func TestPut_RejectsBadKey(t *testing.T) {
	assert.Error(t, New().Put("yesterday", nil))
	_, err := FromSnapshots(map[string]snapshot.FolderState{"2024-13-01 00:00:00": {}})
	assert.Error(t, err)
}

func TestJSON_ExchangeShape(t *testing.T) {
	h := New()
	key := h.Append(time.Unix(1700000200, 0), sampleState())

	data, err := json.Marshal(h)
	require.NoError(t, err)

	var raw map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, key)
	assert.Equal(t, "file", raw[key]["docs/notes.txt"]["type"])
	assert.Equal(t, "docs", raw[key]["docs"]["hash"])

	back := New()
	require.NoError(t, json.Unmarshal(data, back))
	assert.Equal(t, h.Keys(), back.Keys())
	got, _ := back.Get(key)
	assert.Equal(t, "abc", got["docs/notes.txt"].Hash)
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	h, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, h.Len())

	k1 := h.Append(time.Unix(1700000000, 0), sampleState())
	require.NoError(t, store.Append(ctx, k1, sampleState()))
	k2 := h.Append(time.Unix(1700000000, 0), snapshot.FolderState{})
	require.NoError(t, store.Append(ctx, k2, snapshot.FolderState{}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{k1, k2}, loaded.Keys())

	got, ok := loaded.Get(k1)
	require.True(t, ok)
	want := sampleState()
	require.Equal(t, want.Paths(), got.Paths())
	for _, p := range want.Paths() {
		assert.Equal(t, want[p].Hash, got[p].Hash)
		assert.Equal(t, want[p].Type, got[p].Type)
		assert.Equal(t, want[p].Size, got[p].Size)
		assert.WithinDuration(t, want[p].MTime, got[p].MTime, time.Microsecond)
	}

	require.NoError(t, store.Delete(ctx, k1))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{k2}, loaded.Keys())

	imported := New()
	k3 := imported.Append(time.Unix(1800000000, 0), sampleState())
	require.NoError(t, store.Replace(ctx, imported))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{k3}, loaded.Keys())

	require.NoError(t, store.Close())
}

func TestSQLiteStore(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, store)
	exerciseStore(t, store)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "2024-01-01 00:00:00", sampleState()))
	require.NoError(t, store.Close())

	store, err = OpenSQLite(path, nil)
	require.NoError(t, err)
	defer store.Close()

	h, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01 00:00:00"}, h.Keys())
}

func TestJSONStore(t *testing.T) {
	store, err := Open("/p/history.json", WithFS(fs.NewMem()))
	require.NoError(t, err)
	require.IsType(t, &JSONStore{}, store)
	exerciseStore(t, store)
}

func TestJSONStore_PersistsAcrossInstances(t *testing.T) {
	mem := fs.NewMem()
	ctx := context.Background()

	first := NewJSONStore("/p/history.json", mem, nil)
	require.NoError(t, first.Append(ctx, "2024-01-01 00:00:00", sampleState()))

	second := NewJSONStore("/p/history.json", mem, nil)
	h, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01 00:00:00"}, h.Keys())
}

func TestJSONStore_CorruptFile(t *testing.T) {
	mem := fs.NewMem()
	require.NoError(t, mem.WriteFile("/p/history.json", []byte("{not json")))

	_, err := NewJSONStore("/p/history.json", mem, nil).Load(context.Background())
	assert.Error(t, err)
}

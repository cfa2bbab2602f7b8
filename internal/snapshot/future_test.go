package snapshot

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_ExchangeShape(t *testing.T) {
	e := Entry{
		Type:  File,
		CTime: time.Unix(1700000000, 500000000),
		MTime: time.Unix(1700000100, 0),
		Size:  42,
		Hash:  "abc",
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "file", raw["type"])
	assert.InDelta(t, 1700000000.5, raw["ctime"], 1e-6)
	assert.InDelta(t, 1700000100.0, raw["mtime"], 1e-6)
	assert.Equal(t, "abc", raw["hash"])
	assert.EqualValues(t, 42, raw["size"])

	var back Entry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, e.Hash, back.Hash)
	assert.Equal(t, e.Size, back.Size)
	assert.WithinDuration(t, e.CTime, back.CTime, time.Microsecond)
}

func TestFutureEntry_ConflictShape(t *testing.T) {
	a := Entry{Type: File, Hash: "h1", Size: 1, MTime: time.Unix(10, 0)}
	b := Entry{Type: File, Hash: "h2", Size: 2, MTime: time.Unix(20, 0)}

	data, err := json.Marshal(InConflict(a, b))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "conflict", raw["tag"])
	assert.Equal(t, "file", raw["type"])
	assert.Equal(t, "h1", raw["hash_a"])
	assert.Equal(t, "h2", raw["hash_b"])
	assert.NotContains(t, raw, "hash")

	var back FutureEntry
	require.NoError(t, json.Unmarshal(data, &back))
	require.True(t, back.IsConflict())
	assert.Equal(t, "h1", back.Conflict.A.Hash)
	assert.Equal(t, "h2", back.Conflict.B.Hash)
	assert.EqualValues(t, 2, back.Conflict.B.Size)
}

func TestFutureEntry_Merged(t *testing.T) {
	data, err := json.Marshal(Merged(TagUpdatedA, Entry{Type: Folder, Hash: "docs"}))
	require.NoError(t, err)

	var back FutureEntry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.False(t, back.IsConflict())
	assert.Equal(t, TagUpdatedA, back.Tag)
	assert.Equal(t, "docs", back.Entry.Hash)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"file"}`), &back))
}

func TestNormPath(t *testing.T) {
	assert.Equal(t, "a/b/c.txt", NormPath("a/b/../b/c.txt"))
	assert.Equal(t, "a/b", NormPath("/a/b/"))
}

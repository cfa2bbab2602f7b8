// Package history keeps the timestamped common states of past syncs and
// persists them.
package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

// KeyLayout formats history keys. Lexical order of keys is chronological.
const KeyLayout = "2006-01-02 15:04:05"

// History maps sync timestamps to the common state recorded by that sync.
// The zero value is not usable; call New.
type History struct {
	snaps map[string]snapshot.FolderState
	keys  []string
}

func New() *History {
	return &History{snaps: make(map[string]snapshot.FolderState)}
}

// FromSnapshots builds a History from externally stored snapshots.
func FromSnapshots(in map[string]snapshot.FolderState) (*History, error) {
	h := New()
	for key, state := range in {
		if err := h.Put(key, state); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// ParseKey validates a history key.
func ParseKey(key string) (time.Time, error) {
	t, err := time.Parse(KeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid history key %q: %w", key, err)
	}
	return t, nil
}

// Put stores state under key, replacing any snapshot already there.
func (h *History) Put(key string, state snapshot.FolderState) error {
	if _, err := ParseKey(key); err != nil {
		return err
	}
	if _, ok := h.snaps[key]; !ok {
		i := sort.SearchStrings(h.keys, key)
		h.keys = append(h.keys, "")
		copy(h.keys[i+1:], h.keys[i:])
		h.keys[i] = key
	}
	h.snaps[key] = state.Clone()
	return nil
}

// Append records state as the newest snapshot and returns its key. The key
// is derived from now, moved forward a second at a time until it is greater
// than every existing key.
func (h *History) Append(now time.Time, state snapshot.FolderState) string {
	t := now.UTC().Truncate(time.Second)
	if last, ok := h.lastKey(); ok {
		if lt, err := ParseKey(last); err == nil && !t.After(lt) {
			t = lt.Add(time.Second)
		}
	}
	key := t.Format(KeyLayout)
	_ = h.Put(key, state)
	return key
}

// Keys returns every key, oldest first.
func (h *History) Keys() []string {
	return append([]string(nil), h.keys...)
}

func (h *History) Len() int {
	return len(h.keys)
}

func (h *History) Get(key string) (snapshot.FolderState, bool) {
	s, ok := h.snaps[key]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Latest returns the newest snapshot.
func (h *History) Latest() (string, snapshot.FolderState, bool) {
	key, ok := h.lastKey()
	if !ok {
		return "", nil, false
	}
	return key, h.snaps[key].Clone(), true
}

// Baseline is the common state the next plan diffs against: the latest
// snapshot, or an empty state when nothing has been synced yet.
func (h *History) Baseline() snapshot.FolderState {
	if _, s, ok := h.Latest(); ok {
		return s
	}
	return make(snapshot.FolderState)
}

// Delete removes one snapshot. Only explicit trimming calls this.
func (h *History) Delete(key string) bool {
	if _, ok := h.snaps[key]; !ok {
		return false
	}
	delete(h.snaps, key)
	i := sort.SearchStrings(h.keys, key)
	h.keys = append(h.keys[:i], h.keys[i+1:]...)
	return true
}

// Snapshots returns a deep copy of every snapshot.
func (h *History) Snapshots() map[string]snapshot.FolderState {
	out := make(map[string]snapshot.FolderState, len(h.snaps))
	for k, s := range h.snaps {
		out[k] = s.Clone()
	}
	return out
}

// Clone returns an independent copy.
func (h *History) Clone() *History {
	c := New()
	for _, k := range h.keys {
		_ = c.Put(k, h.snaps[k])
	}
	return c
}

func (h *History) lastKey() (string, bool) {
	if len(h.keys) == 0 {
		return "", false
	}
	return h.keys[len(h.keys)-1], true
}

// MarshalJSON writes {"<key>": {"<path>": entry}}.
func (h *History) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.snaps)
}

func (h *History) UnmarshalJSON(data []byte) error {
	var in map[string]snapshot.FolderState
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	parsed, err := FromSnapshots(in)
	if err != nil {
		return err
	}
	*h = *parsed
	return nil
}

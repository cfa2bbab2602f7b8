package snapshot

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Tag explains why a future entry holds the value it does.
type Tag string

const (
	TagUnchanged Tag = "unchanged"
	TagNewA      Tag = "new-a"
	TagNewB      Tag = "new-b"
	TagNewAB     Tag = "new-a-b"
	TagUpdatedA  Tag = "updated-a"
	TagUpdatedB  Tag = "updated-b"
	TagConflict  Tag = "conflict"
	TagDeletedA  Tag = "deleted-a"
	TagDeletedB  Tag = "deleted-b"
)

// Conflicting keeps both pending versions of a path apart; no single entry
// can stand for both.
type Conflicting struct {
	A Entry
	B Entry
}

// FutureEntry is the planner's projection for one path. Entry is meaningful
// unless Conflict is set.
type FutureEntry struct {
	Tag      Tag
	Entry    Entry
	Conflict *Conflicting
}

// Merged projects a single resulting entry.
func Merged(tag Tag, e Entry) FutureEntry {
	return FutureEntry{Tag: tag, Entry: e}
}

// InConflict projects two diverging versions of the same path.
func InConflict(a, b Entry) FutureEntry {
	return FutureEntry{
		Tag:      TagConflict,
		Entry:    Entry{Type: a.Type},
		Conflict: &Conflicting{A: a, B: b},
	}
}

func (f FutureEntry) IsConflict() bool {
	return f.Conflict != nil
}

// FutureState maps relative paths to their projected entries.
type FutureState map[string]FutureEntry

type wireFuture struct {
	Type  EntryType `json:"type"`
	CTime float64   `json:"ctime"`
	MTime float64   `json:"mtime"`
	Hash  string    `json:"hash"`
	Size  int64     `json:"size"`
	Tag   Tag       `json:"tag"`
}

type wireConflict struct {
	Type   EntryType `json:"type"`
	Tag    Tag       `json:"tag"`
	CTimeA float64   `json:"ctime_a"`
	MTimeA float64   `json:"mtime_a"`
	HashA  string    `json:"hash_a"`
	SizeA  int64     `json:"size_a"`
	CTimeB float64   `json:"ctime_b"`
	MTimeB float64   `json:"mtime_b"`
	HashB  string    `json:"hash_b"`
	SizeB  int64     `json:"size_b"`
}

// MarshalJSON writes the flat exchange shape: entry fields plus tag, or
// `_a`/`_b` suffixed pairs for conflicts.
func (f FutureEntry) MarshalJSON() ([]byte, error) {
	if f.Conflict == nil {
		w := f.Entry.wire()
		return json.Marshal(wireFuture{
			Type:  w.Type,
			CTime: w.CTime,
			MTime: w.MTime,
			Hash:  w.Hash,
			Size:  w.Size,
			Tag:   f.Tag,
		})
	}
	a, b := f.Conflict.A.wire(), f.Conflict.B.wire()
	return json.Marshal(wireConflict{
		Type:   f.Conflict.A.Type,
		Tag:    TagConflict,
		CTimeA: a.CTime,
		MTimeA: a.MTime,
		HashA:  a.Hash,
		SizeA:  a.Size,
		CTimeB: b.CTime,
		MTimeB: b.MTime,
		HashB:  b.Hash,
		SizeB:  b.Size,
	})
}

func (f *FutureEntry) UnmarshalJSON(data []byte) error {
	var probe struct {
		Tag Tag `json:"tag"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Tag == "" {
		return fmt.Errorf("future entry without tag")
	}

	if probe.Tag != TagConflict {
		var w wireFuture
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		e := wireEntry{Type: w.Type, CTime: w.CTime, MTime: w.MTime, Hash: w.Hash, Size: w.Size}
		*f = Merged(w.Tag, e.entry())
		return nil
	}

	var w wireConflict
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	a := wireEntry{Type: w.Type, CTime: w.CTimeA, MTime: w.MTimeA, Hash: w.HashA, Size: w.SizeA}
	b := wireEntry{Type: w.Type, CTime: w.CTimeB, MTime: w.MTimeB, Hash: w.HashB, Size: w.SizeB}
	*f = InConflict(a.entry(), b.entry())
	return nil
}

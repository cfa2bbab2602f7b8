package snapshot

import (
	"math"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/edutenorio/FolderTracker/internal/fs"
)

// EntryType distinguishes files from folders.
type EntryType string

const (
	File   EntryType = "file"
	Folder EntryType = "folder"
)

// Entry is the fingerprint of a single file or folder beneath a root.
// Folders carry no content, so their Hash is their own relative path.
type Entry struct {
	Type  EntryType
	CTime time.Time
	MTime time.Time
	Size  int64
	Hash  string
}

// FromFileInfo builds an Entry for the object at rel.
// hash is ignored for folders.
func FromFileInfo(rel string, info fs.FileInfo, hash string) Entry {
	if info.IsDir {
		return Entry{
			Type:  Folder,
			CTime: info.CTime,
			MTime: info.MTime,
			Hash:  NormPath(rel),
		}
	}
	return Entry{
		Type:  File,
		CTime: info.CTime,
		MTime: info.MTime,
		Size:  info.Size,
		Hash:  hash,
	}
}

func (e Entry) IsDir() bool {
	return e.Type == Folder
}

// wireEntry is the exchange shape shared with persisted project files.
type wireEntry struct {
	Type  EntryType `json:"type"`
	CTime float64   `json:"ctime"`
	MTime float64   `json:"mtime"`
	Hash  string    `json:"hash"`
	Size  int64     `json:"size"`
}

func (e Entry) wire() wireEntry {
	return wireEntry{
		Type:  e.Type,
		CTime: toSeconds(e.CTime),
		MTime: toSeconds(e.MTime),
		Hash:  e.Hash,
		Size:  e.Size,
	}
}

func (w wireEntry) entry() Entry {
	return Entry{
		Type:  w.Type,
		CTime: fromSeconds(w.CTime),
		MTime: fromSeconds(w.MTime),
		Hash:  w.Hash,
		Size:  w.Size,
	}
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = w.entry()
	return nil
}

func toSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromSeconds(f float64) time.Time {
	if f == 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second))))
}

// NormPath converts a root-relative path to the forward-slash form used as
// the key in every state.
func NormPath(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	p = path.Clean(p)
	return strings.TrimLeft(p, "/")
}

// Package snapshot defines the content-addressed view of a folder tree:
// per-path entries, whole-tree states and the projected future state a plan
// expects to leave behind.
package snapshot

import "sort"

// Side names one of the two synchronized roots.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// FolderState maps relative paths to entries. A fresh one is produced by
// every scan.
type FolderState map[string]Entry

// Paths returns the keys in lexical order.
func (s FolderState) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns an independent copy.
func (s FolderState) Clone() FolderState {
	out := make(FolderState, len(s))
	for p, e := range s {
		out[p] = e
	}
	return out
}

// Files counts the file entries.
func (s FolderState) Files() int {
	n := 0
	for _, e := range s {
		if e.Type == File {
			n++
		}
	}
	return n
}

// TotalSize sums the size of every file entry.
func (s FolderState) TotalSize() int64 {
	var total int64
	for _, e := range s {
		total += e.Size
	}
	return total
}

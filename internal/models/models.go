package models

import (
	"cmp"
	"io/fs"
	"slices"
	"strconv"
	"strings"
)

type ItemKind string

const (
	KindFolder     ItemKind = "folder"
	KindDataFolder ItemKind = "datafolder"
	KindFile       ItemKind = "file"
	KindError      ItemKind = "error"
)

// Entry type tags that are not item kinds.
const (
	TypeCategory = "category"
	TypeOther    = "other"
)

// PathStatus is the classification of one probed path.
type PathStatus struct {
	Path string
	// SegmentIndex is the number of file segments joined onto the root to
	// build Path.
	SegmentIndex int
	Kind         ItemKind
	// Terminal is set when no further segment may be walked into.
	Terminal   bool
	Info       fs.FileInfo
	MarkerInfo fs.FileInfo
	// Err is the raw probe error for KindError.
	Err error
}

type DirectoryEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	Size string `json:"size"`
}

type Directory struct {
	Path    string           `json:"path"`
	Type    string           `json:"type"`
	Entries []DirectoryEntry `json:"entries"`
}

// SortEntries orders entries in place by one of name, path, type or size.
// Size compares the human readable strings numerically within a unit.
// It reports false for an unknown key and leaves entries untouched.
func SortEntries(entries []DirectoryEntry, key string) bool {
	var compare func(a, b DirectoryEntry) int

	switch strings.ToLower(key) {
	case "name":
		compare = func(a, b DirectoryEntry) int { return cmp.Compare(a.Name, b.Name) }
	case "path":
		compare = func(a, b DirectoryEntry) int { return cmp.Compare(a.Path, b.Path) }
	case "type":
		compare = func(a, b DirectoryEntry) int {
			return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Name, b.Name))
		}
	case "size":
		compare = func(a, b DirectoryEntry) int {
			return cmp.Or(cmp.Compare(sizeRank(a.Size), sizeRank(b.Size)), cmp.Compare(a.Name, b.Name))
		}
	default:
		return false
	}

	slices.SortStableFunc(entries, compare)
	return true
}

var sizeUnits = []string{"PB", "TB", "GB", "MB", "KB", "B"}

// sizeRank turns "1.5KB" back into an approximate byte count. Empty sizes
// sort first.
func sizeRank(size string) float64 {
	for i, unit := range sizeUnits {
		if !strings.HasSuffix(size, unit) {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSuffix(size, unit), 64)
		if err != nil {
			return -1
		}
		for range len(sizeUnits) - 1 - i {
			n *= 1024
		}
		return n
	}
	return -1
}

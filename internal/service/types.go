package service

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/S1riyS/tree-server/internal/models"
)

// TypeLookup maps file extensions to the type tag shown in listings.
// It is immutable once built.
type TypeLookup struct {
	byExt map[string]string
}

// NewTypeLookup inverts a type → extensions mapping. Extensions are compared
// case-insensitively and without a leading dot.
func NewTypeLookup(types map[string][]string) (*TypeLookup, error) {
	const op = "service.NewTypeLookup"

	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	slices.Sort(names)

	byExt := make(map[string]string)
	for _, name := range names {
		for _, ext := range types[name] {
			ext = normalizeExt(ext)
			if ext == "" {
				return nil, fmt.Errorf("%s: type %q lists an empty extension", op, name)
			}
			if prev, exists := byExt[ext]; exists {
				return nil, fmt.Errorf("%s: %w: multiple types for extension %s: %s, %s",
					op, ErrConfigurationConflict, ext, prev, name)
			}
			byExt[ext] = name
		}
	}

	return &TypeLookup{byExt: byExt}, nil
}

// Lookup returns the type tag for a file name, or "other".
func (t *TypeLookup) Lookup(name string) string {
	if t == nil {
		return models.TypeOther
	}
	if typ, ok := t.byExt[normalizeExt(filepath.Ext(name))]; ok {
		return typ
	}
	return models.TypeOther
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

var sizeTags = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// HumanSize formats a byte count with one decimal place, dividing by 1024
// per unit step: 1536 → "1.5KB", 0 → "0.0B".
func HumanSize(size int64) string {
	value := float64(size)
	power := 0
	for value >= 1024 && power < len(sizeTags)-1 {
		value /= 1024
		power++
	}
	return fmt.Sprintf("%.1f%s", value, sizeTags[power])
}

package tree

import (
	"path/filepath"
	"strings"
)

// ResolvedPath is the split of a request path into the part consumed by the
// tree and the part left for the filesystem.
type ResolvedPath struct {
	// Node is the last node reached: a *Category or the Root the walk stopped at.
	Node            Node
	RequestSegments []string
	TreeSegments    []string
	FileSegments    []string
	// FilesystemPath is empty unless a Root was reached.
	FilesystemPath string
}

// Label is the slash-joined request path without leading or trailing slash.
func (r *ResolvedPath) Label() string {
	parts := make([]string, 0, len(r.TreeSegments)+len(r.FileSegments))
	parts = append(parts, r.TreeSegments...)
	parts = append(parts, r.FileSegments...)
	return strings.Join(parts, "/")
}

// SplitPath splits a decoded URL path on "/" and drops empty segments.
func SplitPath(urlPath string) []string {
	segments := make([]string, 0, strings.Count(urlPath, "/")+1)
	for _, s := range strings.Split(urlPath, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// Resolve descends t along segments. It reports false when a segment is "."
// or "..", when the tree runs out before a Root is reached, or when the
// remaining segments would leave the Root they are joined onto.
func Resolve(segments []string, t *Tree) (*ResolvedPath, bool) {
	if t == nil || t.Root == nil {
		return nil, false
	}
	for _, s := range segments {
		if isTraversal(s) {
			return nil, false
		}
	}

	request := make([]string, len(segments))
	copy(request, segments)

	node := t.Root
	end := 0
descend:
	for ; end < len(request); end++ {
		switch n := node.(type) {
		case *Category:
			child, ok := n.Get(request[end])
			if !ok {
				break descend
			}
			node = child
		case Root:
			break descend
		}
	}

	result := &ResolvedPath{
		Node:            node,
		RequestSegments: request,
		TreeSegments:    request[:end:end],
		FileSegments:    []string{},
	}

	switch n := node.(type) {
	case *Category:
		// No filesystem fallback for partial category matches.
		if end < len(request) {
			return nil, false
		}
	case Root:
		fileSegments := make([]string, 0, len(request)-end)
		for _, s := range request[end:] {
			s = strings.TrimSpace(s)
			if s == "" || isTraversal(s) {
				return nil, false
			}
			fileSegments = append(fileSegments, s)
		}
		fsPath, ok := safeJoin(string(n), fileSegments)
		if !ok {
			return nil, false
		}
		result.FileSegments = fileSegments
		result.FilesystemPath = fsPath
	}

	return result, true
}

func isTraversal(segment string) bool {
	return segment == "." || segment == ".."
}

// safeJoin joins segments onto root and verifies the result is still
// inside root.
func safeJoin(root string, segments []string) (string, bool) {
	for _, s := range segments {
		if strings.ContainsRune(s, filepath.Separator) || strings.ContainsRune(s, '/') {
			return "", false
		}
	}

	full := filepath.Join(append([]string{root}, segments...)...)

	rel, err := filepath.Rel(filepath.Clean(root), full)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

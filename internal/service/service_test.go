package service

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/S1riyS/tree-server/internal/repository"
)

const testMarker = "tiddlywiki.info"

// countingRepo records every path handed to Stat.
type countingRepo struct {
	repository.FileSystemRepository

	mu    sync.Mutex
	stats []string
}

func (r *countingRepo) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	r.mu.Lock()
	r.stats = append(r.stats, path)
	r.mu.Unlock()
	return r.FileSystemRepository.Stat(ctx, path)
}

func (r *countingRepo) statted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.stats))
	copy(out, r.stats)
	return out
}

// newTestFs lays out:
//
//	/data/readme.md          (3 bytes)
//	/data/docs/guide.txt     (1536 bytes)
//	/data/wiki/tiddlywiki.info
//	/data/wiki/sub/page.html
//	/data/empty/
func newTestFs(t *testing.T) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	files := map[string][]byte{
		"/data/readme.md":          []byte("abc"),
		"/data/docs/guide.txt":     make([]byte, 1536),
		"/data/wiki/" + testMarker: []byte("{}"),
		"/data/wiki/sub/page.html": []byte("<p>"),
	}
	for name, content := range files {
		require.NoError(t, mem.MkdirAll(filepath.Dir(filepath.FromSlash(name)), 0o755))
		require.NoError(t, afero.WriteFile(mem, filepath.FromSlash(name), content, 0o644))
	}
	require.NoError(t, mem.MkdirAll(filepath.FromSlash("/data/empty"), 0o755))
	return mem
}

func p(s string) string {
	return filepath.FromSlash(s)
}

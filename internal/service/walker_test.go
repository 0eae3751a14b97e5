package service

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/S1riyS/tree-server/internal/models"
	"github.com/S1riyS/tree-server/internal/repository"
)

func newWalker(t *testing.T, fsys afero.Fs) (StatWalker, *countingRepo) {
	t.Helper()
	repo := &countingRepo{FileSystemRepository: repository.NewFileSystemRepository(fsys)}
	return NewStatWalker(repo, testMarker), repo
}

func candidateProbes(stats []string) []string {
	var out []string
	for _, s := range stats {
		if filepath.Base(s) != testMarker {
			out = append(out, s)
		}
	}
	return out
}

func TestStatWalker_File(t *testing.T) {
	w, repo := newWalker(t, newTestFs(t))

	status := w.Walk(context.Background(), p("/data"), []string{"docs", "guide.txt"})

	assert.Equal(t, models.KindFile, status.Kind)
	assert.True(t, status.Terminal)
	assert.Equal(t, 2, status.SegmentIndex)
	assert.Equal(t, p("/data/docs/guide.txt"), status.Path)
	require.NotNil(t, status.Info)
	assert.EqualValues(t, 1536, status.Info.Size())
	assert.Equal(t, []string{p("/data"), p("/data/docs"), p("/data/docs/guide.txt")}, candidateProbes(repo.statted()))
}

func TestStatWalker_Folder(t *testing.T) {
	w, _ := newWalker(t, newTestFs(t))

	status := w.Walk(context.Background(), p("/data"), []string{"docs"})
	assert.Equal(t, models.KindFolder, status.Kind)
	assert.True(t, status.Terminal)
	assert.Equal(t, 1, status.SegmentIndex)

	status = w.Walk(context.Background(), p("/data"), nil)
	assert.Equal(t, models.KindFolder, status.Kind)
	assert.Equal(t, 0, status.SegmentIndex)
	assert.Equal(t, p("/data"), status.Path)
}

func TestStatWalker_DataFolderShortCircuits(t *testing.T) {
	w, repo := newWalker(t, newTestFs(t))

	status := w.Walk(context.Background(), p("/data"), []string{"wiki", "sub", "page.html"})

	assert.Equal(t, models.KindDataFolder, status.Kind)
	assert.True(t, status.Terminal)
	assert.Equal(t, 1, status.SegmentIndex)
	assert.Equal(t, p("/data/wiki"), status.Path)
	assert.NotNil(t, status.MarkerInfo)

	for _, s := range repo.statted() {
		assert.False(t, strings.HasPrefix(s, p("/data/wiki/sub")), "probed %s inside a data folder", s)
	}
}

func TestStatWalker_FileStopsWalk(t *testing.T) {
	w, repo := newWalker(t, newTestFs(t))

	status := w.Walk(context.Background(), p("/data"), []string{"readme.md", "extra", "more"})

	assert.Equal(t, models.KindFile, status.Kind)
	assert.Equal(t, 1, status.SegmentIndex)
	assert.Len(t, candidateProbes(repo.statted()), 2)
}

func TestStatWalker_Missing(t *testing.T) {
	w, repo := newWalker(t, newTestFs(t))

	segments := []string{"missing", "a", "b"}
	status := w.Walk(context.Background(), p("/data"), segments)

	assert.Equal(t, models.KindError, status.Kind)
	assert.True(t, status.Terminal)
	assert.Equal(t, 1, status.SegmentIndex)
	assert.ErrorIs(t, status.Err, ErrProbeFailed)
	assert.ErrorIs(t, status.Err, fs.ErrNotExist)
	assert.LessOrEqual(t, len(candidateProbes(repo.statted())), len(segments)+1)
}

func TestStatWalker_MarkerDirectoryIsNotDataFolder(t *testing.T) {
	mem := newTestFs(t)
	require.NoError(t, mem.MkdirAll(p("/data/odd/"+testMarker), 0o755))
	w, _ := newWalker(t, mem)

	status := w.Walk(context.Background(), p("/data"), []string{"odd"})
	assert.Equal(t, models.KindFolder, status.Kind)
}

func TestStatWalker_CanceledContext(t *testing.T) {
	w, repo := newWalker(t, newTestFs(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status := w.Walk(ctx, p("/data"), []string{"docs"})
	assert.Equal(t, models.KindError, status.Kind)
	assert.True(t, status.Terminal)
	assert.True(t, errors.Is(status.Err, context.Canceled))
	assert.Empty(t, repo.statted())
}

func TestStatWalker_StatOne(t *testing.T) {
	w, _ := newWalker(t, newTestFs(t))

	assert.Equal(t, models.KindDataFolder, w.StatOne(context.Background(), p("/data/wiki")).Kind)
	assert.Equal(t, models.KindFile, w.StatOne(context.Background(), p("/data/readme.md")).Kind)

	folder := w.StatOne(context.Background(), p("/data/empty"))
	assert.Equal(t, models.KindFolder, folder.Kind)
	assert.True(t, folder.Terminal)
}

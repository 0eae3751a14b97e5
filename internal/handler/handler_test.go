package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/S1riyS/tree-server/internal/models"
	"github.com/S1riyS/tree-server/internal/repository"
	"github.com/S1riyS/tree-server/internal/service"
	"github.com/S1riyS/tree-server/internal/tree"
	"github.com/S1riyS/tree-server/pkg/logging"
)

const marker = "tiddlywiki.info"

func p(s string) string {
	return filepath.FromSlash(s)
}

func newTestRepo(t *testing.T) repository.FileSystemRepository {
	t.Helper()
	mem := afero.NewMemMapFs()
	files := map[string]string{
		"/data/readme.md":          "abc",
		"/data/docs/guide.txt":     "guide",
		"/data/docs/b.md":          "bb",
		"/data/wiki/" + marker:     "{}",
		"/data/wiki/sub/page.html": "<p>",
	}
	for name, content := range files {
		require.NoError(t, mem.MkdirAll(filepath.Dir(p(name)), 0o755))
		require.NoError(t, afero.WriteFile(mem, p(name), []byte(content), 0o644))
	}
	return repository.NewFileSystemRepository(mem)
}

func newTestHandler(t *testing.T, repo repository.FileSystemRepository, dataFolders DataFolderServer) *Handler {
	t.Helper()
	types, err := service.NewTypeLookup(map[string][]string{"markdown": {"md"}, "text": {"txt"}})
	require.NoError(t, err)

	tr := &tree.Tree{Root: tree.NewCategory().
		Set("files", tree.Root(p("/data"))).
		Set("group", tree.NewCategory().Set("docs", tree.Root(p("/data/docs"))))}

	walker := service.NewStatWalker(repo, marker)
	listing := service.NewListingBuilder(repo, walker, types, 4)
	return NewHandler(tr, repo, walker, listing, dataFolders)
}

func serve(h *Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.HandleTree(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeDirectory(t *testing.T, rec *httptest.ResponseRecorder) models.Directory {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dir models.Directory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dir))
	return dir
}

func TestHandleTree_CategoryListing(t *testing.T) {
	h := newTestHandler(t, newTestRepo(t), nil)

	dir := decodeDirectory(t, serve(h, http.MethodGet, "/"))
	assert.Equal(t, "category", dir.Type)
	assert.Equal(t, "", dir.Path)
	assert.Equal(t, []models.DirectoryEntry{
		{Name: "files", Path: "files/", Type: "folder"},
		{Name: "group", Path: "group/", Type: "category"},
	}, dir.Entries)
}

func TestHandleTree_RedirectsFolderLikePaths(t *testing.T) {
	h := newTestHandler(t, newTestRepo(t), nil)

	for target, want := range map[string]string{
		"/group":           "/group/",
		"/files/docs":      "/files/docs/",
		"/files?sort=name": "/files/?sort=name",
	} {
		rec := serve(h, http.MethodGet, target)
		assert.Equal(t, http.StatusFound, rec.Code, target)
		assert.Equal(t, want, rec.Header().Get("Location"), target)
	}
}

func TestHandleTree_FolderListing(t *testing.T) {
	h := newTestHandler(t, newTestRepo(t), nil)

	dir := decodeDirectory(t, serve(h, http.MethodGet, "/group/docs/?sort=type"))
	assert.Equal(t, "folder", dir.Type)
	assert.Equal(t, "group/docs", dir.Path)
	assert.Equal(t, []models.DirectoryEntry{
		{Name: "b.md", Path: "b.md", Type: "markdown", Size: "2.0B"},
		{Name: "guide.txt", Path: "guide.txt", Type: "text", Size: "5.0B"},
	}, dir.Entries)
}

func TestHandleTree_UnknownSortKey(t *testing.T) {
	h := newTestHandler(t, newTestRepo(t), nil)

	rec := serve(h, http.MethodGet, "/files/?sort=mtime")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTree_File(t *testing.T) {
	h := newTestHandler(t, newTestRepo(t), nil)

	rec := serve(h, http.MethodGet, "/files/readme.md")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Body.String())

	rec = serve(h, http.MethodGet, "/files/readme.md/extra")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTree_DataFolderDescription(t *testing.T) {
	h := newTestHandler(t, newTestRepo(t), nil)

	rec := serve(h, http.MethodGet, "/files/wiki/sub/page.html")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "datafolder", body["type"])
	assert.Equal(t, "/files/wiki", body["prefix"])
	assert.Equal(t, []any{"sub", "page.html"}, body["rest"])
	assert.NotContains(t, body, "path")
	assert.NotContains(t, rec.Body.String(), p("/data/wiki"))
}

func TestHandleTree_DataFolderServer(t *testing.T) {
	var got *DataFolderMount
	h := newTestHandler(t, newTestRepo(t), DataFolderServerFunc(func(w http.ResponseWriter, _ *http.Request, mount *DataFolderMount) {
		got = mount
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := serve(h, http.MethodGet, "/files/wiki")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "/files/wiki", got.Prefix)
	assert.Equal(t, p("/data/wiki"), got.Path)
	assert.Empty(t, got.Rest)
}

func TestHandleTree_NotFound(t *testing.T) {
	h := newTestHandler(t, newTestRepo(t), nil)

	for _, target := range []string{
		"/nope",
		"/group/docs2/",
		"/files/missing",
		"/files/missing/deeper",
		"/files/../etc/passwd",
		"/files/./readme.md",
	} {
		rec := serve(h, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestHandleTree_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, newTestRepo(t), nil)

	rec := serve(h, http.MethodPost, "/")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

func TestHandleTree_CanceledRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := newTestHandler(t, newTestRepo(t), nil)

	ctx, cancel := context.WithCancel(logging.MakeContextWithLogger(context.Background(), logger))
	cancel()

	rec := httptest.NewRecorder()
	h.HandleTree(rec, httptest.NewRequest(http.MethodGet, "/files/readme.md", nil).WithContext(ctx))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), "context canceled")
}

func TestHandler_ResolveRejects(t *testing.T) {
	h := newTestHandler(t, newTestRepo(t), nil)

	_, err := h.resolve("/files/../etc")
	assert.ErrorIs(t, err, service.ErrPathRejected)
	_, err = h.resolve("/nope")
	assert.ErrorIs(t, err, service.ErrPathRejected)

	resolved, err := h.resolve("/files/docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, resolved.FileSegments)
}

// deniedRepo fails every Stat with a permission error.
type deniedRepo struct {
	repository.FileSystemRepository
}

func (deniedRepo) Stat(context.Context, string) (fs.FileInfo, error) {
	return nil, fs.ErrPermission
}

func TestHandleTree_ProbeFailure(t *testing.T) {
	h := newTestHandler(t, deniedRepo{newTestRepo(t)}, nil)

	rec := serve(h, http.MethodGet, "/files/readme.md")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Status int    `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, body.Status)
}

func TestRegisterRoutes(t *testing.T) {
	h := newTestHandler(t, newTestRepo(t), nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"tree-server"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/readme.md", nil))
	assert.Equal(t, "abc", rec.Body.String())
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/S1riyS/tree-server/internal/models"
	"github.com/S1riyS/tree-server/internal/repository"
	"github.com/S1riyS/tree-server/internal/service"
	"github.com/S1riyS/tree-server/internal/tree"
	"github.com/S1riyS/tree-server/pkg/logging"
	"github.com/S1riyS/tree-server/pkg/logging/slogext"
)

type Handler struct {
	tree        *tree.Tree
	repo        repository.FileSystemRepository
	walker      service.StatWalker
	listing     service.ListingBuilder
	dataFolders DataFolderServer
}

// NewHandler wires the resolution pipeline. A nil dataFolders answers data
// folder requests with a JSON description of the mount.
func NewHandler(
	t *tree.Tree,
	repo repository.FileSystemRepository,
	walker service.StatWalker,
	listing service.ListingBuilder,
	dataFolders DataFolderServer,
) *Handler {
	if dataFolders == nil {
		dataFolders = DataFolderServerFunc(describeDataFolder)
	}
	return &Handler{
		tree:        t,
		repo:        repo,
		walker:      walker,
		listing:     listing,
		dataFolders: dataFolders,
	}
}

// HandleTree serves every path of the virtual namespace.
func (h *Handler) HandleTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleTree"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	state := newState(w, r)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		state.Fail(http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	resolved, err := h.resolve(r.URL.Path)
	if err != nil {
		logger.Debug("Path not resolved", slogext.Err(err))
		state.Fail(http.StatusNotFound, "Not Found")
		return
	}

	switch node := resolved.Node.(type) {
	case *tree.Category:
		if h.redirectToFolder(state, r) {
			return
		}
		h.serveListing(state, r, node, "", resolved.Label())

	case tree.Root:
		status := h.walker.Walk(ctx, string(node), resolved.FileSegments)
		h.serveStatus(state, r, resolved, node, status)
	}
}

// resolve splits urlPath and resolves it against the tree. Rejected paths
// return an error wrapping service.ErrPathRejected.
func (h *Handler) resolve(urlPath string) (*tree.ResolvedPath, error) {
	resolved, ok := tree.Resolve(tree.SplitPath(urlPath), h.tree)
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrPathRejected, urlPath)
	}
	return resolved, nil
}

func (h *Handler) serveStatus(state *State, r *http.Request, resolved *tree.ResolvedPath, root tree.Root, status *models.PathStatus) {
	ctx := r.Context()
	const op = "handler.serveStatus"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	switch status.Kind {
	case models.KindError:
		if errors.Is(status.Err, context.Canceled) || errors.Is(status.Err, context.DeadlineExceeded) {
			logger.Debug("Request ended before the walk finished", slogext.Err(status.Err), slog.String("path", status.Path))
			state.Fail(http.StatusServiceUnavailable, "Request canceled")
			return
		}
		if errors.Is(status.Err, fs.ErrNotExist) {
			logger.Debug("Path not found", slog.String("path", status.Path))
			state.Fail(http.StatusNotFound, "Not Found")
			return
		}
		logger.Error("Failed to classify path", slogext.Err(status.Err), slog.String("path", status.Path))
		state.Fail(http.StatusInternalServerError, "Internal Server Error")

	case models.KindFile:
		// A file cannot be walked into.
		if status.SegmentIndex < len(resolved.FileSegments) {
			state.Fail(http.StatusNotFound, "Not Found")
			return
		}
		h.serveFile(state, r, status)

	case models.KindDataFolder:
		consumed := len(resolved.TreeSegments) + status.SegmentIndex
		rest := make([]string, 0, len(resolved.FileSegments)-status.SegmentIndex)
		rest = append(rest, resolved.FileSegments[status.SegmentIndex:]...)
		state.done = true
		h.dataFolders.ServeDataFolder(state.w, r, &DataFolderMount{
			Prefix: "/" + strings.Join(resolved.RequestSegments[:consumed], "/"),
			Path:   status.Path,
			Rest:   rest,
		})

	case models.KindFolder:
		if h.redirectToFolder(state, r) {
			return
		}
		h.serveListing(state, r, root, status.Path, resolved.Label())
	}
}

func (h *Handler) serveListing(state *State, r *http.Request, node tree.Node, fsPath, label string) {
	ctx := r.Context()
	const op = "handler.serveListing"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	dir, err := h.listing.Build(ctx, node, fsPath, label)
	if err != nil {
		logger.Error("Failed to build listing", slogext.Err(err), slog.String("label", label))
		state.Fail(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if key := r.URL.Query().Get("sort"); key != "" {
		if !models.SortEntries(dir.Entries, key) {
			state.Fail(http.StatusBadRequest, fmt.Sprintf("unknown sort key %q", key))
			return
		}
	}

	if err := state.JSON(http.StatusOK, dir); err != nil {
		logger.Warn("Failed to write listing", slogext.Err(err))
	}
}

func (h *Handler) serveFile(state *State, r *http.Request, status *models.PathStatus) {
	ctx := r.Context()
	const op = "handler.serveFile"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	f, err := h.repo.Open(ctx, status.Path)
	if err != nil {
		logger.Error("Failed to open file", slogext.Err(err), slog.String("path", status.Path))
		if errors.Is(err, fs.ErrNotExist) {
			state.Fail(http.StatusNotFound, "Not Found")
		} else {
			state.Fail(http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}
	defer f.Close()

	state.done = true
	state.w.Header().Set("X-Api-Access-Type", "file")
	http.ServeContent(state.w, r, status.Info.Name(), status.Info.ModTime(), f)
}

// redirectToFolder sends folder-like requests without a trailing slash to
// the slash form so relative links in listings resolve.
func (h *Handler) redirectToFolder(state *State, r *http.Request) bool {
	if strings.HasSuffix(r.URL.Path, "/") {
		return false
	}
	location := r.URL.EscapedPath() + "/"
	if r.URL.RawQuery != "" {
		location += "?" + r.URL.RawQuery
	}
	state.Redirect(location)
	return true
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","service":"tree-server"}`))
}

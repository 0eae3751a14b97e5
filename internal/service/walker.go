package service

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/S1riyS/tree-server/internal/metrics"
	"github.com/S1riyS/tree-server/internal/models"
	"github.com/S1riyS/tree-server/internal/repository"
	"github.com/S1riyS/tree-server/pkg/logging"
)

// StatWalker classifies filesystem paths as folder, data folder, file or
// error. It never ends a request itself; failures are reported in
// PathStatus.Err.
type StatWalker interface {
	// Walk probes root, root/s1, root/s1/s2, ... in order and returns the
	// status of the first terminal classification, or of the last path.
	Walk(ctx context.Context, root string, segments []string) *models.PathStatus
	// StatOne classifies a single path without walking.
	StatOne(ctx context.Context, path string) *models.PathStatus
}

type statWalker struct {
	repo   repository.FileSystemRepository
	marker string
}

func NewStatWalker(repo repository.FileSystemRepository, marker string) StatWalker {
	return &statWalker{repo: repo, marker: marker}
}

func (w *statWalker) Walk(ctx context.Context, root string, segments []string) *models.PathStatus {
	const op = "service.statWalker.Walk"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	var status *models.PathStatus
	candidate := root
	for i := 0; i <= len(segments); i++ {
		if i > 0 {
			candidate = filepath.Join(candidate, segments[i-1])
		}

		if err := ctx.Err(); err != nil {
			return &models.PathStatus{
				Path:         candidate,
				SegmentIndex: i,
				Kind:         models.KindError,
				Terminal:     true,
				Err:          fmt.Errorf("%s: %w", op, err),
			}
		}

		status = w.probe(ctx, candidate, i, i == len(segments))
		if status.Terminal {
			break
		}
	}

	logger.Debug("Walk finished",
		slog.String("root", root),
		slog.String("path", status.Path),
		slog.String("kind", string(status.Kind)),
		slog.Int("segment_index", status.SegmentIndex),
		slog.Int("segments", len(segments)),
	)

	return status
}

func (w *statWalker) StatOne(ctx context.Context, path string) *models.PathStatus {
	return w.probe(ctx, path, 0, true)
}

// probe classifies one path. last tells whether a plain folder ends the walk.
func (w *statWalker) probe(ctx context.Context, path string, index int, last bool) *models.PathStatus {
	const op = "service.statWalker.probe"

	status := &models.PathStatus{Path: path, SegmentIndex: index}
	defer func() { metrics.RecordProbe(string(status.Kind)) }()

	info, err := w.repo.Stat(ctx, path)
	if err != nil {
		status.Kind = models.KindError
		status.Terminal = true
		status.Err = fmt.Errorf("%w: %w", ErrProbeFailed, err)
		return status
	}
	status.Info = info

	if !info.IsDir() {
		status.Terminal = true
		if info.Mode().IsRegular() || info.Mode()&fs.ModeSymlink != 0 {
			status.Kind = models.KindFile
		} else {
			status.Kind = models.KindError
			status.Err = fmt.Errorf("%w: %s: unsupported file mode %s", ErrProbeFailed, path, info.Mode().Type())
		}
		return status
	}

	markerInfo, err := w.repo.Stat(ctx, filepath.Join(path, w.marker))
	if err == nil && markerInfo.Mode().IsRegular() {
		status.Kind = models.KindDataFolder
		status.Terminal = true
		status.MarkerInfo = markerInfo
		return status
	}
	if err != nil && !isNotExist(err) {
		logging.GetLoggerFromContextWithOp(ctx, op).Warn("Marker probe failed, treating as plain folder",
			slog.String("path", path), slog.String("reason", err.Error()))
	}

	status.Kind = models.KindFolder
	status.Terminal = last
	return status
}

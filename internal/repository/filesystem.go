package repository

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/S1riyS/tree-server/pkg/logging"
)

// FileSystemRepository is the probe service the walker and listing builder
// run against. Errors keep their io/fs identity so callers can test them
// with errors.Is.
type FileSystemRepository interface {
	// Stat follows symbolic links.
	Stat(ctx context.Context, path string) (fs.FileInfo, error)
	// ReadDir returns child names in the order the filesystem yields them.
	ReadDir(ctx context.Context, path string) ([]string, error)
	Open(ctx context.Context, path string) (afero.File, error)
}

type fileSystemRepository struct {
	fs afero.Fs
}

func NewFileSystemRepository(fsys afero.Fs) FileSystemRepository {
	return &fileSystemRepository{fs: fsys}
}

func (r *fileSystemRepository) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	const op = "repository.fileSystemRepository.Stat"

	info, err := r.fs.Stat(path)
	if err != nil {
		logging.GetLoggerFromContextWithOp(ctx, op).Debug("Stat failed",
			slog.String("path", path), slog.String("reason", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return info, nil
}

func (r *fileSystemRepository) ReadDir(ctx context.Context, path string) ([]string, error) {
	const op = "repository.fileSystemRepository.ReadDir"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	dir, err := r.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer dir.Close()

	// Readdirnames keeps on-disk order; afero.ReadDir would sort.
	names, err := dir.Readdirnames(-1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Debug("Read directory", slog.String("path", path), slog.Int("entries", len(names)))

	return names, nil
}

func (r *fileSystemRepository) Open(ctx context.Context, path string) (afero.File, error) {
	const op = "repository.fileSystemRepository.Open"

	f, err := r.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

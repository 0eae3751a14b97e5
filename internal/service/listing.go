package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/S1riyS/tree-server/internal/metrics"
	"github.com/S1riyS/tree-server/internal/models"
	"github.com/S1riyS/tree-server/internal/repository"
	"github.com/S1riyS/tree-server/internal/tree"
	"github.com/S1riyS/tree-server/pkg/logging"
	"github.com/S1riyS/tree-server/pkg/logging/slogext"
)

const DefaultListingConcurrency = 16

// ListingBuilder turns a folder-like location into a directory listing.
type ListingBuilder interface {
	// Build lists the children of node. For a *tree.Category the children
	// are its keys; for a tree.Root they are the entries of fsPath on disk
	// (the root itself when fsPath is empty). Entries keep enumeration
	// order. Only a failure to enumerate returns an error; children that
	// cannot be classified appear with type "error".
	Build(ctx context.Context, node tree.Node, fsPath, label string) (*models.Directory, error)
}

type listingBuilder struct {
	repo        repository.FileSystemRepository
	walker      StatWalker
	types       *TypeLookup
	concurrency int
}

func NewListingBuilder(
	repo repository.FileSystemRepository,
	walker StatWalker,
	types *TypeLookup,
	concurrency int,
) ListingBuilder {
	if concurrency <= 0 {
		concurrency = DefaultListingConcurrency
	}
	return &listingBuilder{
		repo:        repo,
		walker:      walker,
		types:       types,
		concurrency: concurrency,
	}
}

type listingChild struct {
	name     string
	category bool
	path     string
}

func (b *listingBuilder) Build(ctx context.Context, node tree.Node, fsPath, label string) (*models.Directory, error) {
	const op = "service.listingBuilder.Build"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	started := time.Now()

	var (
		children []listingChild
		dirType  string
	)

	switch n := node.(type) {
	case *tree.Category:
		dirType = models.TypeCategory
		for _, key := range n.Keys() {
			child, _ := n.Get(key)
			switch c := child.(type) {
			case *tree.Category:
				children = append(children, listingChild{name: key, category: true})
			case tree.Root:
				children = append(children, listingChild{name: key, path: string(c)})
			}
		}

	case tree.Root:
		dirType = string(models.KindFolder)
		if fsPath == "" {
			fsPath = string(n)
		}
		names, err := b.repo.ReadDir(ctx, fsPath)
		if err != nil {
			logger.Error("Failed to read directory", slogext.Err(err), slog.String("path", fsPath))
			return nil, fmt.Errorf("%s: %w: %w", op, ErrProbeFailed, err)
		}
		for _, name := range names {
			children = append(children, listingChild{name: name, path: filepath.Join(fsPath, name)})
		}

	default:
		return nil, fmt.Errorf("%s: unsupported node %T", op, node)
	}

	entries := make([]models.DirectoryEntry, len(children))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, child := range children {
		if child.category {
			entries[i] = models.DirectoryEntry{
				Name: child.name,
				Path: child.name + "/",
				Type: models.TypeCategory,
			}
			continue
		}
		g.Go(func() error {
			status := b.walker.StatOne(ctx, child.path)
			if status.Kind == models.KindError {
				level := slog.LevelWarn
				if isNotExist(status.Err) {
					level = slog.LevelDebug
				}
				logger.Log(ctx, level, "Listing child could not be classified",
					slog.String("name", child.name), slogext.Err(status.Err))
			}
			entries[i] = b.entryFor(child.name, status)
			return nil
		})
	}
	// Children never return errors; Wait is only the barrier.
	_ = g.Wait()

	metrics.RecordListing(len(entries), time.Since(started))
	logger.Debug("Listing built",
		slog.String("label", label),
		slog.String("type", dirType),
		slog.Int("entries", len(entries)),
	)

	return &models.Directory{
		Path:    label,
		Type:    dirType,
		Entries: entries,
	}, nil
}

func (b *listingBuilder) entryFor(name string, status *models.PathStatus) models.DirectoryEntry {
	entry := models.DirectoryEntry{Name: name, Path: name}

	switch status.Kind {
	case models.KindFolder:
		entry.Type = string(models.KindFolder)
		entry.Path = name + "/"
	case models.KindDataFolder:
		entry.Type = string(models.KindDataFolder)
	case models.KindFile:
		entry.Type = b.types.Lookup(name)
		if status.Info != nil {
			entry.Size = HumanSize(status.Info.Size())
		}
	default:
		entry.Type = string(models.KindError)
	}

	return entry
}

// Package assets serves hymns from a static set of JSON files: an
// index.json manifest plus one record file per hymn.
package assets

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hazyhaar/himnario/pkg/hymn"
)

// ManifestName is the index file every asset base must provide.
const ManifestName = "index.json"

// Repository reads the manifest on every call. Put a cache.Repository in
// front of it to avoid repeated reads.
type Repository struct {
	loader Loader
	logger *slog.Logger
}

// New returns a Repository reading through loader.
func New(loader Loader, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{loader: loader, logger: logger}
}

func (r *Repository) GetIndex(ctx context.Context) ([]hymn.IndexEntry, error) {
	data, err := r.loader.Load(ctx, ManifestName)
	if err != nil {
		return nil, &hymn.DataSourceError{Op: "load " + ManifestName, Err: err}
	}
	entries, err := hymn.DecodeIndex(data)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("asset index loaded", "entries", len(entries))
	return entries, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*hymn.Hymn, error) {
	index, err := r.GetIndex(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := hymn.FindEntry(index, id)
	if !ok {
		return nil, &hymn.NotFoundError{ID: id}
	}
	return r.Resolve(ctx, entry)
}

// Resolve loads the record file named by entry.
func (r *Repository) Resolve(ctx context.Context, entry hymn.IndexEntry) (*hymn.Hymn, error) {
	if entry.File == "" {
		return nil, &hymn.DataSourceError{
			Op:  "resolve hymn " + entry.ID,
			Err: errors.New("index entry has no asset file"),
		}
	}
	data, err := r.loader.Load(ctx, entry.File)
	if err != nil {
		return nil, &hymn.DataSourceError{Op: "load " + entry.File, Err: err}
	}
	return hymn.DecodeHymn(entry.ID, data)
}

package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/himnario/pkg/cache"
	"github.com/hazyhaar/himnario/pkg/hymn"
)

const (
	// ManifestName is the file in the folder that holds the index.
	ManifestName = "index.json"
	fileMapKey   = "fileMap"
)

// Repository serves hymns stored as JSON files in one Drive folder. Files
// are addressed by name through a filename to file id map built from the
// folder listing.
type Repository struct {
	files    Files
	folderID string
	logger   *slog.Logger
	fileMaps *cache.Tier[map[string]string]
}

// Option configures a Repository.
type Option func(*Repository)

// WithFileMapCache keeps the file map in a cache tier under "fileMap".
// Without it the folder is listed again on every lookup.
func WithFileMapCache(cfg cache.TierConfig) Option {
	return func(r *Repository) {
		r.fileMaps = cache.NewTier(cfg, decodeFileMap)
	}
}

func New(files Files, folderID string, logger *slog.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{files: files, folderID: folderID, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) GetIndex(ctx context.Context) ([]hymn.IndexEntry, error) {
	data, err := r.download(ctx, ManifestName)
	if err != nil {
		return nil, err
	}
	return hymn.DecodeIndex(data)
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

// Resolve downloads and validates the record file named by entry.
func (r *Repository) Resolve(ctx context.Context, entry hymn.IndexEntry) (*hymn.Hymn, error) {
	if entry.File == "" {
		return nil, &hymn.DataSourceError{
			Op:  "resolve hymn " + entry.ID,
			Err: errors.New("index entry has no file"),
		}
	}
	data, err := r.download(ctx, entry.File)
	if err != nil {
		return nil, err
	}
	return hymn.DecodeHymn(entry.ID, data)
}

func (r *Repository) download(ctx context.Context, name string) ([]byte, error) {
	fileMap, err := r.fileMap(ctx)
	if err != nil {
		return nil, err
	}
	fileID, ok := fileMap[name]
	if !ok {
		return nil, &hymn.DataSourceError{
			Op:  "locate " + name,
			Err: fmt.Errorf("file %q not found in drive folder", name),
		}
	}
	data, err := r.files.Download(ctx, fileID)
	if err != nil {
		return nil, &hymn.DataSourceError{Op: "download " + name, Err: err}
	}
	return data, nil
}

func (r *Repository) fileMap(ctx context.Context) (map[string]string, error) {
	if r.fileMaps != nil {
		if m, ok := r.fileMaps.Get(ctx, fileMapKey); ok {
			return m, nil
		}
	}
	m, err := r.listFolder(ctx)
	if err != nil {
		return nil, err
	}
	if r.fileMaps != nil {
		r.fileMaps.Put(ctx, fileMapKey, m)
	}
	return m, nil
}

// listFolder walks every page of the folder listing. The map is returned
// only once the last page has been read.
func (r *Repository) listFolder(ctx context.Context) (map[string]string, error) {
	m := make(map[string]string)
	token := ""
	pages := 0
	for {
		page, err := r.files.ListPage(ctx, r.folderID, token)
		if err != nil {
			var ve *hymn.ValidationError
			if errors.As(err, &ve) {
				return nil, err
			}
			return nil, &hymn.DataSourceError{Op: "list drive folder", Err: err}
		}
		pages++
		for _, f := range page.Files {
			m[f.Name] = f.ID
		}
		if page.NextPageToken == "" {
			break
		}
		if page.NextPageToken == token {
			return nil, &hymn.DataSourceError{
				Op:  "list drive folder",
				Err: fmt.Errorf("page token %q repeated", token),
			}
		}
		token = page.NextPageToken
	}
	r.logger.Debug("drive folder listed", "files", len(m), "pages", pages)
	return m, nil
}

func decodeFileMap(data []byte) (map[string]string, error) {
	if t := bytes.TrimSpace(data); len(t) == 0 || t[0] != '{' {
		return nil, errors.New("file map: expected a JSON object")
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("file map: %w", err)
	}
	// A null value decodes to "" and is rejected with the empty ones.
	for name, id := range m {
		if name == "" || id == "" {
			return nil, fmt.Errorf("file map: empty entry for %q", name)
		}
	}
	return m, nil
}

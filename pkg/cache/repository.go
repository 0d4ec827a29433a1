package cache

import (
	"context"
	"slices"

	"github.com/hazyhaar/himnario/pkg/hymn"
)

const (
	indexKey  = "index"
	hymnKeyNS = "hymn:"
)

// Repository puts two-tier caching in front of any hymn.Repository. The
// index is cached under "index" and each record under "hymn:<id>".
type Repository struct {
	inner    hymn.Repository
	resolver hymn.Resolver
	index    *Tier[[]hymn.IndexEntry]
	hymns    *Tier[*hymn.Hymn]
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithResolver fetches records on a miss by resolving the cached index entry
// instead of calling the inner GetByID, which would re-read the index.
func WithResolver(res hymn.Resolver) RepositoryOption {
	return func(r *Repository) { r.resolver = res }
}

// NewRepository wraps inner. Durable entries that fail validation are
// treated as absent and refetched.
func NewRepository(inner hymn.Repository, cfg TierConfig, opts ...RepositoryOption) *Repository {
	r := &Repository{
		inner: inner,
		index: NewTier(cfg, hymn.DecodeIndex, WithClone(cloneIndex)),
		hymns: NewTier(cfg, func(data []byte) (*hymn.Hymn, error) {
			return hymn.DecodeHymn("", data)
		}, WithClone(cloneHymn)),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// GetIndex returns the cached index, fetching and storing it on a miss.
func (r *Repository) GetIndex(ctx context.Context) ([]hymn.IndexEntry, error) {
	if idx, ok := r.index.Get(ctx, indexKey); ok {
		return idx, nil
	}
	idx, err := r.inner.GetIndex(ctx)
	if err != nil {
		return nil, err
	}
	r.index.Put(ctx, indexKey, idx)
	return idx, nil
}

// GetByID returns the cached record for id. On a miss the id is looked up
// in the (cached) index first, so unknown ids fail without touching the
// network for the record.
func (r *Repository) GetByID(ctx context.Context, id string) (*hymn.Hymn, error) {
	key := hymnKeyNS + id
	if h, ok := r.hymns.Get(ctx, key); ok && h.ID == id {
		return h, nil
	}

	idx, err := r.GetIndex(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := hymn.FindEntry(idx, id)
	if !ok {
		return nil, &hymn.NotFoundError{ID: id}
	}

	var h *hymn.Hymn
	if r.resolver != nil {
		h, err = r.resolver.Resolve(ctx, entry)
	} else {
		h, err = r.inner.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	r.hymns.Put(ctx, key, h)
	return h, nil
}

func cloneIndex(idx []hymn.IndexEntry) []hymn.IndexEntry { return slices.Clone(idx) }

func cloneHymn(h *hymn.Hymn) *hymn.Hymn {
	if h == nil {
		return nil
	}
	c := *h
	return &c
}

// Inner returns the wrapped repository.
func (r *Repository) Inner() hymn.Repository { return r.inner }

// Package catalog is the read model on top of a hymn.Repository: the
// alphabetical listing, query filtering and ranking, and "did you mean"
// suggestions.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hazyhaar/himnario/pkg/hymn"
	"github.com/hazyhaar/himnario/pkg/text"
)

// ErrInvalidID is returned by Get for a blank id.
var ErrInvalidID = errors.New("invalid hymn id")

// DefaultSuggestions is the suggestion count used when none is requested.
const DefaultSuggestions = 5

// Result is one search hit.
type Result struct {
	Entry hymn.IndexEntry `json:"entry"`
	Score int             `json:"score"`
}

// SearchOptions tunes Search.
type SearchOptions struct {
	// RankByScore orders hits by match quality (exact, prefix, substring)
	// instead of alphabetically. Ties keep alphabetical order.
	RankByScore bool
	// Limit caps the number of hits. Zero means no limit.
	Limit int
}

type Catalog struct {
	repo   hymn.Repository
	logger *slog.Logger
}

func New(repo hymn.Repository, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{repo: repo, logger: logger}
}

// List returns the index sorted by title in Spanish collation, ignoring case
// and accents.
func (c *Catalog) List(ctx context.Context) ([]hymn.IndexEntry, error) {
	index, err := c.repo.GetIndex(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sorted := make([]hymn.IndexEntry, len(index))
	copy(sorted, index)
	SortByTitle(sorted)
	return sorted, nil
}

// SortByTitle sorts entries in place. The sort is stable.
func SortByTitle(entries []hymn.IndexEntry) {
	// Collators keep internal buffers; one per call.
	col := collate.New(language.Spanish, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(entries, func(i, j int) bool {
		return col.CompareString(entries[i].Title, entries[j].Title) < 0
	})
}

// Search returns the listing entries whose title contains query, compared
// without case or diacritics. A blank query returns every entry.
func (c *Catalog) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	entries, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		if !text.Matches(query, e.Title) {
			continue
		}
		results = append(results, Result{Entry: e, Score: text.Score(query, e.Title)})
	}
	if opts.RankByScore {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	c.logger.Debug("catalog search", "query", query, "hits", len(results))
	return results, nil
}

// Suggest returns up to limit entries whose normalized title contains the
// characters of query in order, best matches first.
func (c *Catalog) Suggest(ctx context.Context, query string, limit int) ([]hymn.IndexEntry, error) {
	q := text.Normalize(query)
	if q == "" {
		return []hymn.IndexEntry{}, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestions
	}
	entries, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = text.Normalize(e.Title)
	}
	matches := fuzzy.Find(q, titles)

	out := make([]hymn.IndexEntry, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, entries[m.Index])
	}
	return out, nil
}

// Get returns the full record for id.
func (c *Catalog) Get(ctx context.Context, id string) (*hymn.Hymn, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	h, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

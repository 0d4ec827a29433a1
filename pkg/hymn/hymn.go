// Package hymn defines the hymn domain model, the repository contract that
// every data source implements, and strict validation of external payloads.
package hymn

import "context"

// IndexEntry is the lightweight listing record of a hymn.
type IndexEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	// File locates the full record for asset and drive sources. Empty for REST.
	File string `json:"file,omitempty"`
}

// Hymn is a full lyric record.
type Hymn struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Repository is the data-fetch contract consumed by the catalog, the API
// and the CLI.
type Repository interface {
	// GetIndex returns every index entry of the source.
	GetIndex(ctx context.Context) ([]IndexEntry, error)
	// GetByID returns the full record for id, or a *NotFoundError when id is
	// absent from the current index.
	GetByID(ctx context.Context, id string) (*Hymn, error)
}

// Resolver is implemented by repositories that can dereference an index
// entry directly, without re-reading their index.
type Resolver interface {
	Resolve(ctx context.Context, entry IndexEntry) (*Hymn, error)
}

// FindEntry returns the entry with the given id.
func FindEntry(index []IndexEntry, id string) (IndexEntry, bool) {
	for _, e := range index {
		if e.ID == id {
			return e, true
		}
	}
	return IndexEntry{}, false
}

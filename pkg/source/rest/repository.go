package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hazyhaar/himnario/pkg/hymn"
)

func indexID(id string) bool {
	n, err := strconv.ParseInt(id, 10, 64)
	return err == nil && n > 0 && strconv.FormatInt(n, 10) == id
}

// Repository reads hymns from the backend's /hymn endpoints.
type Repository struct {
	client *Client
}

func New(client *Client) *Repository {
	return &Repository{client: client}
}

type listItem struct {
	ID        *int64  `json:"id"`
	Title     *string `json:"title"`
	CreatedAt *string `json:"created_at"`
}

type detailItem struct {
	ID      *int64  `json:"id"`
	Title   *string `json:"title"`
	Content *struct {
		Content *string `json:"content"`
		Author  *string `json:"author"`
	} `json:"content"`
	CreatedAt *string `json:"created_at"`
}

// GetIndex lists every hymn. Numeric backend ids become string ids.
func (r *Repository) GetIndex(ctx context.Context) ([]hymn.IndexEntry, error) {
	data, err := r.client.Get(ctx, "/hymn/all")
	if err != nil {
		return nil, wrap("list hymns", err)
	}
	if !isArray(data) {
		return nil, &hymn.ValidationError{Context: "index", Err: errors.New("expected a JSON array")}
	}
	var items []listItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &hymn.ValidationError{Context: "index", Err: err}
	}

	entries := make([]hymn.IndexEntry, 0, len(items))
	for i, it := range items {
		if err := checkID(it.ID); err != nil {
			return nil, &hymn.ValidationError{Context: "index", Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		if it.CreatedAt == nil {
			return nil, &hymn.ValidationError{Context: "index", Err: fmt.Errorf("entry %d: created_at is required", i)}
		}
		title := ""
		if it.Title != nil {
			title = *it.Title
		}
		entries = append(entries, hymn.IndexEntry{ID: strconv.FormatInt(*it.ID, 10), Title: title})
	}
	if err := hymn.ValidateIndex(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetByID fetches one hymn. A backend 404 is reported as *hymn.NotFoundError.
func (r *Repository) GetByID(ctx context.Context, id string) (*hymn.Hymn, error) {
	// Index ids are canonical positive integers; nothing else can be listed.
	if !indexID(id) {
		return nil, &hymn.NotFoundError{ID: id}
	}
	data, err := r.client.Get(ctx, "/hymn/"+url.PathEscape(id))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &hymn.NotFoundError{ID: id}
		}
		return nil, wrap("get hymn "+id, err)
	}

	ctxName := "hymn " + id
	var it detailItem
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) || len(data) == 0 {
		return nil, &hymn.ValidationError{Context: ctxName, Err: errors.New("missing record")}
	}
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, &hymn.ValidationError{Context: ctxName, Err: err}
	}
	if err := checkID(it.ID); err != nil {
		return nil, &hymn.ValidationError{Context: ctxName, Err: err}
	}
	if it.Content == nil || it.Content.Content == nil {
		return nil, &hymn.ValidationError{Context: ctxName, Err: errors.New("content is required")}
	}
	if it.CreatedAt == nil {
		return nil, &hymn.ValidationError{Context: ctxName, Err: errors.New("created_at is required")}
	}

	h := &hymn.Hymn{
		ID:        strconv.FormatInt(*it.ID, 10),
		Content:   *it.Content.Content,
		CreatedAt: normalizeTimestamp(*it.CreatedAt),
	}
	if it.Title != nil {
		h.Title = *it.Title
	}
	if it.Content.Author != nil {
		h.Author = *it.Content.Author
	}
	if err := hymn.ValidateHymn(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Submitter identifies who creates a hymn.
type Submitter struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewHymn is the input of Create.
type NewHymn struct {
	Title     string
	Content   string
	Author    string
	WrittenAt string
}

type createBody struct {
	Title   string        `json:"title"`
	Content createContent `json:"content"`
	User    Submitter     `json:"user"`
}

type createContent struct {
	Content   string `json:"content"`
	Author    string `json:"author,omitempty"`
	WrittenAt string `json:"writtenAt,omitempty"`
}

// Create posts a new hymn with the stored bearer token. The body must carry
// at least one verse or a chorus.
func (r *Repository) Create(ctx context.Context, h NewHymn, by Submitter) error {
	if h.Title == "" {
		return &hymn.ValidationError{Context: "new hymn", Err: errors.New("title must not be empty")}
	}
	if !hymn.ParseContent(h.Content).Valid() {
		return &hymn.ValidationError{Context: "new hymn", Err: errors.New("content needs at least one VERSO or CORO section")}
	}
	if by.Email == "" || by.Name == "" {
		return &hymn.ValidationError{Context: "new hymn", Err: errors.New("submitter email and name are required")}
	}

	body := createBody{
		Title:   h.Title,
		Content: createContent{Content: h.Content, Author: h.Author, WrittenAt: h.WrittenAt},
		User:    by,
	}
	if _, err := r.client.Post(ctx, "/hymn/create", body); err != nil {
		return wrap("create hymn", err)
	}
	return nil
}

// wrap keeps session expiry visible and marks every other failure as a
// data source error.
func wrap(op string, err error) error {
	var se *hymn.SessionExpiredError
	if errors.As(err, &se) {
		return err
	}
	return &hymn.DataSourceError{Op: op, Err: err}
}

func checkID(id *int64) error {
	if id == nil {
		return errors.New("id is required")
	}
	if *id <= 0 {
		return fmt.Errorf("id %d must be a positive integer", *id)
	}
	return nil
}

func isArray(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

// normalizeTimestamp rewrites backend timestamps as RFC 3339. Naive
// timestamps are read as UTC. Unparseable values are returned unchanged.
func normalizeTimestamp(s string) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return s
}

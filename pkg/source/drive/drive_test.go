package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/hazyhaar/himnario/pkg/cache"
	"github.com/hazyhaar/himnario/pkg/hymn"
)

var quietLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeFiles serves a folder split across pages keyed by page token.
type fakeFiles struct {
	mu        sync.Mutex
	pages     map[string]*Page
	failToken string
	content   map[string]string

	listCalls     int
	downloadCalls []string
}

func (f *fakeFiles) ListPage(_ context.Context, folderID, token string) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if folderID != "folder-1" {
		return nil, fmt.Errorf("unexpected folder %s", folderID)
	}
	if f.failToken != "" && token == f.failToken {
		return nil, errors.New("connection reset")
	}
	p, ok := f.pages[token]
	if !ok {
		return nil, fmt.Errorf("unknown page token %q", token)
	}
	return p, nil
}

func (f *fakeFiles) Download(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadCalls = append(f.downloadCalls, fileID)
	c, ok := f.content[fileID]
	if !ok {
		return nil, errors.New("HTTP 404")
	}
	return []byte(c), nil
}

// threePageFolder spreads index.json and two records over three pages.
func threePageFolder() *fakeFiles {
	return &fakeFiles{
		pages: map[string]*Page{
			"":   {Files: []File{{ID: "id-h001", Name: "h001.json"}}, NextPageToken: "p2"},
			"p2": {Files: []File{{ID: "id-index", Name: "index.json"}}, NextPageToken: "p3"},
			"p3": {Files: []File{{ID: "id-h002", Name: "h002.json"}}},
		},
		content: map[string]string{
			"id-index": `[
				{"id":"h001","title":"Sublime Gracia","file":"h001.json"},
				{"id":"h002","title":"Castillo Fuerte","file":"h002.json"},
				{"id":"h003","title":"Fuera de la carpeta","file":"h003.json"}
			]`,
			"id-h001": `{"id":"h001","title":"Sublime Gracia","content":"Sublime gracia del Señor"}`,
			"id-h002": `{"id":"h002","title":"Castillo Fuerte","content":"Castillo fuerte es nuestro Dios"}`,
		},
	}
}

func TestRepository_PaginationComplete(t *testing.T) {
	files := threePageFolder()
	repo := New(files, "folder-1", quietLogger)
	ctx := context.Background()

	idx, err := repo.GetIndex(ctx)
	if err != nil {
		t.Fatalf("GetIndex: %v", err)
	}
	if len(idx) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(idx))
	}
	if files.listCalls != 3 {
		t.Fatalf("expected 3 page requests, got %d", files.listCalls)
	}

	// Files from the first and last page are both reachable.
	for _, id := range []string{"h001", "h002"} {
		if _, err := repo.GetByID(ctx, id); err != nil {
			t.Fatalf("GetByID(%s): %v", id, err)
		}
	}
}

func TestRepository_UncachedListsEveryCall(t *testing.T) {
	files := threePageFolder()
	repo := New(files, "folder-1", quietLogger)
	ctx := context.Background()

	repo.GetIndex(ctx)
	repo.GetIndex(ctx)
	if files.listCalls != 6 {
		t.Fatalf("expected the folder to be listed twice (6 pages), got %d", files.listCalls)
	}
}

func TestRepository_UnmappedFile(t *testing.T) {
	repo := New(threePageFolder(), "folder-1", quietLogger)

	_, err := repo.GetByID(context.Background(), "h003")
	var ds *hymn.DataSourceError
	if !errors.As(err, &ds) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
	if !strings.Contains(err.Error(), "h003.json") {
		t.Fatalf("expected message to name the file, got %q", err)
	}
}

func TestRepository_NotFound(t *testing.T) {
	files := threePageFolder()
	repo := New(files, "folder-1", quietLogger)

	_, err := repo.GetByID(context.Background(), "missing-id")
	var nf *hymn.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	for _, id := range files.downloadCalls {
		if id != "id-index" {
			t.Fatalf("only the index should be downloaded, got %v", files.downloadCalls)
		}
	}
}

func TestRepository_MissingManifest(t *testing.T) {
	files := &fakeFiles{pages: map[string]*Page{"": {Files: []File{{ID: "x", Name: "h001.json"}}}}}
	_, err := New(files, "folder-1", quietLogger).GetIndex(context.Background())
	var ds *hymn.DataSourceError
	if !errors.As(err, &ds) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
}

func TestRepository_RepeatedTokenStops(t *testing.T) {
	files := &fakeFiles{pages: map[string]*Page{
		"":   {Files: []File{}, NextPageToken: "p2"},
		"p2": {Files: []File{}, NextPageToken: "p2"},
	}}
	_, err := New(files, "folder-1", quietLogger).GetIndex(context.Background())
	var ds *hymn.DataSourceError
	if !errors.As(err, &ds) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
}

func TestRepository_FailedPaginationIsNotCached(t *testing.T) {
	store := cache.NewMemoryStore()
	cfg := cache.TierConfig{Store: store, Prefix: "himnario:drive:", Logger: quietLogger}
	ctx := context.Background()

	files := threePageFolder()
	files.failToken = "p3"
	repo := New(files, "folder-1", quietLogger, WithFileMapCache(cfg))

	_, err := repo.GetIndex(ctx)
	var ds *hymn.DataSourceError
	if !errors.As(err, &ds) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
	if _, err := store.Get(ctx, "himnario:drive:fileMap"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("partial file map must not be cached, got %v", err)
	}

	// Once the listing recovers the full map is built and cached.
	files.failToken = ""
	if _, err := repo.GetByID(ctx, "h002"); err != nil {
		t.Fatalf("GetByID after recovery: %v", err)
	}
	if _, err := store.Get(ctx, "himnario:drive:fileMap"); err != nil {
		t.Fatalf("expected cached file map: %v", err)
	}
}

func TestRepository_CachedVariant(t *testing.T) {
	store := cache.NewMemoryStore()
	cfg := cache.TierConfig{Store: store, Prefix: "himnario:drive:", Logger: quietLogger}
	ctx := context.Background()

	first := threePageFolder()
	inner := New(first, "folder-1", quietLogger, WithFileMapCache(cfg))
	repo := cache.NewRepository(inner, cfg, cache.WithResolver(inner))
	if _, err := repo.GetByID(ctx, "h001"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if first.listCalls != 3 {
		t.Fatalf("expected one full listing, got %d pages", first.listCalls)
	}
	if len(first.downloadCalls) != 2 {
		t.Fatalf("expected index and record downloads, got %v", first.downloadCalls)
	}
	for _, key := range []string{"fileMap", "index", "hymn:h001"} {
		if _, err := store.Get(ctx, "himnario:drive:"+key); err != nil {
			t.Fatalf("expected durable key %s: %v", key, err)
		}
	}

	// A new instance sharing the store needs only the record it has not seen.
	second := threePageFolder()
	inner = New(second, "folder-1", quietLogger, WithFileMapCache(cfg))
	repo = cache.NewRepository(inner, cfg, cache.WithResolver(inner))
	if _, err := repo.GetByID(ctx, "h001"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if _, err := repo.GetByID(ctx, "h002"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if second.listCalls != 0 {
		t.Fatalf("expected cached file map, got %d list calls", second.listCalls)
	}
	if len(second.downloadCalls) != 1 || second.downloadCalls[0] != "id-h002" {
		t.Fatalf("expected a single download of h002, got %v", second.downloadCalls)
	}
}

func TestClient_ListPage(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		queries = append(queries, q.Get("pageToken"))
		if q.Get("q") != "'folder-1' in parents and trashed = false" {
			t.Errorf("unexpected q %q", q.Get("q"))
		}
		if q.Get("key") != "k-123" || q.Get("pageSize") != "1000" || q.Get("fields") != "nextPageToken,files(id,name)" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("pageToken") == "" {
			io.WriteString(w, `{"files":[{"id":"a","name":"index.json"}],"nextPageToken":"tok2"}`)
			return
		}
		io.WriteString(w, `{"files":[{"id":"b","name":"h001.json"}]}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k-123", BaseURL: srv.URL})
	ctx := context.Background()

	p, err := c.ListPage(ctx, "folder-1", "")
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if p.NextPageToken != "tok2" || len(p.Files) != 1 || p.Files[0].Name != "index.json" {
		t.Fatalf("unexpected page %+v", p)
	}
	p, err = c.ListPage(ctx, "folder-1", "tok2")
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if p.NextPageToken != "" {
		t.Fatalf("expected last page, got token %q", p.NextPageToken)
	}
	if len(queries) != 2 || queries[1] != "tok2" {
		t.Fatalf("unexpected page tokens %v", queries)
	}
}

func TestDecodeListing_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing files", `{"nextPageToken":"x"}`},
		{"files not array", `{"files":{}}`},
		{"empty id", `{"files":[{"id":"","name":"a.json"}]}`},
		{"missing name", `{"files":[{"id":"a"}]}`},
		{"array", `[]`},
		{"html", `<html></html>`},
		{"null files", `{"files":null}`},
		{"case-folded files key", `{"Files":[]}`},
		{"case-folded file keys", `{"files":[{"ID":"a","Name":"a.json"}]}`},
		{"null name", `{"files":[{"id":"a","name":null}]}`},
		{"null element", `{"files":[null]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeListing([]byte(tt.body))
			var ve *hymn.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestDecodeFileMap(t *testing.T) {
	m, err := decodeFileMap([]byte(`{"index.json":"f1","h001.json":"f2"}`))
	if err != nil || m["h001.json"] != "f2" {
		t.Fatalf("decodeFileMap = %v, %v", m, err)
	}
	for _, body := range []string{`{"index.json":null}`, `{"index.json":""}`, `[]`, `{"a":1}`} {
		if _, err := decodeFileMap([]byte(body)); err == nil {
			t.Errorf("decodeFileMap(%s) accepted", body)
		}
	}
}

func TestDecodeListing_NonStringTokenEndsListing(t *testing.T) {
	p, err := decodeListing([]byte(`{"files":[],"nextPageToken":42}`))
	if err != nil {
		t.Fatalf("decodeListing: %v", err)
	}
	if p.NextPageToken != "" {
		t.Fatalf("expected no token, got %q", p.NextPageToken)
	}
}

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") != "media" {
			t.Errorf("expected alt=media, got %s", r.URL.RawQuery)
		}
		if r.URL.Path != "/file-9" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"id":"h009"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, RequestsPerSecond: 50})
	ctx := context.Background()

	data, err := c.Download(ctx, "file-9")
	if err != nil || string(data) != `{"id":"h009"}` {
		t.Fatalf("Download: %q, %v", data, err)
	}
	if _, err := c.Download(ctx, "other"); err == nil {
		t.Fatal("expected error for 404")
	}
}

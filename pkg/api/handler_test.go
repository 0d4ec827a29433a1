package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/hazyhaar/himnario/pkg/catalog"
	"github.com/hazyhaar/himnario/pkg/hymn"
	"github.com/hazyhaar/himnario/pkg/source"
)

var quietLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeRepo struct {
	index []hymn.IndexEntry
	hymns map[string]*hymn.Hymn
	err   error
}

func (f *fakeRepo) GetIndex(context.Context) ([]hymn.IndexEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.index, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*hymn.Hymn, error) {
	if f.err != nil {
		return nil, f.err
	}
	if h, ok := f.hymns[id]; ok {
		return h, nil
	}
	return nil, &hymn.NotFoundError{ID: id}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		index: []hymn.IndexEntry{
			{ID: "h001", Title: "Sublime Gracia"},
			{ID: "h002", Title: "Castillo Fuerte"},
			{ID: "h003", Title: "Señor omnipotente"},
		},
		hymns: map[string]*hymn.Hymn{
			"h001": {ID: "h001", Title: "Sublime Gracia", Content: "VERSO 1:\nSublime gracia del Señor\nCORO:\nAleluya"},
		},
	}
}

func newServer(t *testing.T, repo hymn.Repository, checker *source.Checker) *httptest.Server {
	t.Helper()
	eps := NewEndpoints(catalog.New(repo, quietLogger), quietLogger)
	srv := httptest.NewServer(NewRouter(eps, checker, quietLogger))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestSearch(t *testing.T) {
	srv := newServer(t, newFakeRepo(), nil)

	var all searchResponse
	if code := getJSON(t, srv.URL+"/v1/hymns", &all); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if all.Total != 3 || all.Hymns[0].Entry.Title != "Castillo Fuerte" {
		t.Fatalf("unexpected listing %+v", all)
	}

	var hits searchResponse
	getJSON(t, srv.URL+"/v1/hymns?q=senor", &hits)
	if hits.Total != 1 || hits.Hymns[0].Entry.ID != "h003" || hits.Hymns[0].Score != 2 {
		t.Fatalf("unexpected hits %+v", hits)
	}
}

func TestSearch_BadLimit(t *testing.T) {
	srv := newServer(t, newFakeRepo(), nil)
	if code := getJSON(t, srv.URL+"/v1/hymns?limit=-1", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestGetHymn(t *testing.T) {
	srv := newServer(t, newFakeRepo(), nil)

	var got struct {
		ID       string       `json:"id"`
		Title    string       `json:"title"`
		Sections hymn.Content `json:"sections"`
	}
	if code := getJSON(t, srv.URL+"/v1/hymns/h001", &got); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if got.ID != "h001" || len(got.Sections.Verses) != 1 || got.Sections.Chorus == nil {
		t.Fatalf("unexpected hymn %+v", got)
	}
}

func TestGetHymn_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		path string
		want int
	}{
		{"not found", nil, "/v1/hymns/missing-id", http.StatusNotFound},
		{"blank id", nil, "/v1/hymns/%20", http.StatusBadRequest},
		{"session expired", &hymn.SessionExpiredError{}, "/v1/hymns/h001", http.StatusUnauthorized},
		{"invalid payload", &hymn.ValidationError{Context: "hymn h001", Err: errors.New("content must not be empty")}, "/v1/hymns/h001", http.StatusBadGateway},
		{"source down", &hymn.DataSourceError{Op: "list drive folder", Err: errors.New("timeout")}, "/v1/hymns/h001", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			repo.err = tt.err
			srv := newServer(t, repo, nil)

			var body map[string]string
			if code := getJSON(t, srv.URL+tt.path, &body); code != tt.want {
				t.Fatalf("expected %d, got %d (%v)", tt.want, code, body)
			}
			if body["error"] == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	srv := newServer(t, newFakeRepo(), nil)

	var got suggestResponse
	getJSON(t, srv.URL+"/v1/suggest?q=cstllo&limit=2", &got)
	if len(got.Suggestions) != 1 || got.Suggestions[0].ID != "h002" {
		t.Fatalf("unexpected suggestions %+v", got)
	}
}

func TestHealth(t *testing.T) {
	repo := newFakeRepo()
	checker := source.NewChecker("assets", repo, quietLogger, time.Hour)
	srv := newServer(t, repo, checker)

	var got healthResponse
	getJSON(t, srv.URL+"/v1/health", &got)
	if got.Status != "ok" || got.LastCheck != nil {
		t.Fatalf("unexpected health before check %+v", got)
	}

	repo.err = &hymn.DataSourceError{Op: "load index.json", Err: errors.New("gone")}
	checker.Check(context.Background())
	getJSON(t, srv.URL+"/v1/health", &got)
	if got.Status != "degraded" || got.Source != "assets" || got.LastCheck == nil || got.LastCheck.OK {
		t.Fatalf("unexpected health %+v", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newServer(t, newFakeRepo(), nil)
	resp, err := http.Get(srv.URL + "/v1/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID on response")
	}
}

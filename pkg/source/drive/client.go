// CLAUDE:SUMMARY Minimal Google Drive v3 client: paginated folder listing with response validation, media download, optional client-side rate limit.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hazyhaar/himnario/pkg/hymn"
)

// DefaultBaseURL is the Drive v3 files endpoint.
const DefaultBaseURL = "https://www.googleapis.com/drive/v3/files"

// Config holds Drive access parameters.
type Config struct {
	APIKey   string `yaml:"api_key"`
	FolderID string `yaml:"folder_id"`
	// RequestsPerSecond limits outgoing calls. Zero disables the limit.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BaseURL           string  `yaml:"base_url"`
}

// File is one entry of a folder listing.
type File struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Page is one page of a folder listing. NextPageToken is empty on the last
// page.
type Page struct {
	Files         []File
	NextPageToken string
}

// Files is the subset of the Drive API the repository needs.
type Files interface {
	ListPage(ctx context.Context, folderID, pageToken string) (*Page, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Client calls the Drive REST API with an API key.
type Client struct {
	base    string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		base:   strings.TrimSuffix(base, "/"),
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// ListPage fetches one page of the non-trashed children of folderID.
func (c *Client) ListPage(ctx context.Context, folderID, pageToken string) (*Page, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", folderID))
	q.Set("key", c.apiKey)
	q.Set("fields", "nextPageToken,files(id,name)")
	q.Set("pageSize", "1000")
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	data, err := c.get(ctx, c.base+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return decodeListing(data)
}

// Download returns the raw content of fileID.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	q := url.Values{}
	q.Set("alt", "media")
	q.Set("key", c.apiKey)
	return c.get(ctx, c.base+"/"+url.PathEscape(fileID)+"?"+q.Encode())
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the API key; report the error without it.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("drive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drive request: HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

func decodeListing(data []byte) (*Page, error) {
	const ctxName = "drive listing"
	fail := func(err error) (*Page, error) {
		return nil, &hymn.ValidationError{Context: ctxName, Err: err}
	}
	if t := bytes.TrimSpace(data); len(t) == 0 || t[0] != '{' {
		return fail(errors.New("expected a JSON object"))
	}
	obj, err := hymn.DecodeObject(data, "files", "nextPageToken")
	if err != nil {
		return fail(err)
	}
	rawFiles, ok := obj["files"]
	if !ok || hymn.IsNull(rawFiles) {
		return fail(errors.New("files is required"))
	}
	var files []json.RawMessage
	if err := json.Unmarshal(rawFiles, &files); err != nil {
		return fail(errors.New("files must be an array"))
	}

	page := &Page{Files: make([]File, 0, len(files))}
	for i, raw := range files {
		f, err := decodeFile(raw)
		if err != nil {
			return fail(fmt.Errorf("file %d: %w", i, err))
		}
		page.Files = append(page.Files, f)
	}

	// A non-string token means there are no further pages.
	var token string
	if raw, ok := obj["nextPageToken"]; ok && json.Unmarshal(raw, &token) == nil {
		page.NextPageToken = token
	}
	return page, nil
}

func decodeFile(raw json.RawMessage) (File, error) {
	obj, err := hymn.DecodeObject(raw, "id", "name")
	if err != nil {
		return File{}, err
	}
	id, err := hymn.StringMember(obj, "id")
	if err != nil {
		return File{}, err
	}
	if id == nil || *id == "" {
		return File{}, errors.New("id must not be empty")
	}
	name, err := hymn.StringMember(obj, "name")
	if err != nil {
		return File{}, err
	}
	if name == nil || *name == "" {
		return File{}, errors.New("name must not be empty")
	}
	return File{ID: *id, Name: *name}, nil
}

package assets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"
)

// Loader reads a named asset relative to a base location.
type Loader interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// NewLoader picks an HTTPLoader for http(s) bases and an FSLoader over the
// local directory otherwise.
func NewLoader(base string) Loader {
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return &HTTPLoader{Base: base}
	}
	return &FSLoader{FS: os.DirFS(base)}
}

// FSLoader reads assets from a filesystem.
type FSLoader struct {
	FS fs.FS
}

func (l *FSLoader) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.ReadFile(l.FS, name)
}

// HTTPLoader fetches assets with GET {Base}/{name}.
type HTTPLoader struct {
	Base   string
	Client *http.Client
}

func (l *HTTPLoader) Load(ctx context.Context, name string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	url := strings.TrimSuffix(l.Base, "/") + "/" + name

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// CLAUDE:SUMMARY HTTP client for the hymn backend: identification headers, bearer token, responseOk/responseError envelope unwrap, 401 clears credentials.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/himnario/pkg/hymn"
)

// Credentials supplies the bearer token and is cleared when the backend
// rejects it.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Config holds backend connection parameters.
type Config struct {
	BaseURL string `yaml:"base_url"`
	Client  string `yaml:"client"`
	Country string `yaml:"country"`
}

// APIError is a non-success answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
	// Fields carries per-field validation messages, when the backend sends them.
	Fields map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the backend and unwraps its response envelope.
type Client struct {
	cfg    Config
	creds  Credentials
	http   *http.Client
	logger *slog.Logger
}

// NewClient returns a Client. creds may be nil for anonymous access.
func NewClient(cfg Config, creds Credentials, logger *slog.Logger) *Client {
	if cfg.Client == "" {
		cfg.Client = "front-end-himnary"
	}
	if cfg.Country == "" {
		cfg.Country = "CL"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		creds:  creds,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Get performs GET path and returns the envelope's data.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs POST path with a JSON body and returns the envelope's data.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if err := c.setHeaders(ctx, req); err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.creds != nil {
			if err := c.creds.Clear(ctx); err != nil {
				c.logger.Error("clear credentials after 401", "error", err)
			}
		}
		return nil, &hymn.SessionExpiredError{}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return unwrap(resp.StatusCode, raw)
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request) error {
	req.Header.Set("x-client", c.cfg.Client)
	req.Header.Set("country", c.cfg.Country)
	req.Header.Set("event-id", "fe-"+uuid.NewString())
	req.Header.Set("Accept", "application/json")

	if c.creds == nil {
		return nil
	}
	token, err := c.creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

type okBody struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type errorBody struct {
	StatusCode int             `json:"statusCode"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

// unwrap extracts data from {"responseOk": {...}} or turns
// {"responseError": {...}} into an *APIError.
func unwrap(status int, raw []byte) (json.RawMessage, error) {
	if !json.Valid(raw) {
		return nil, &APIError{StatusCode: status, Message: fmt.Sprintf("server error (%d)", status)}
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &APIError{StatusCode: status, Message: "unexpected response"}
	}

	if rawErr, ok := env["responseError"]; ok {
		var eb errorBody
		if err := json.Unmarshal(rawErr, &eb); err != nil {
			return nil, &APIError{StatusCode: status, Message: "unexpected response"}
		}
		apiErr := &APIError{StatusCode: eb.StatusCode, Message: eb.Error}
		if len(eb.Data) > 0 {
			var fields map[string]string
			if json.Unmarshal(eb.Data, &fields) == nil {
				apiErr.Fields = fields
			}
		}
		return nil, apiErr
	}

	if rawOk, ok := env["responseOk"]; ok {
		var ob okBody
		if err := json.Unmarshal(rawOk, &ob); err != nil {
			return nil, &APIError{StatusCode: status, Message: "unexpected response"}
		}
		return ob.Data, nil
	}

	return nil, &APIError{StatusCode: status, Message: "unexpected response"}
}

package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/ticklist/internal/state"
	"github.com/five82/ticklist/internal/task"
)

// Ensure Client implements state.Service at compile time.
var _ state.Service = (*Client)(nil)

// Client talks to the ticklist document service over HTTP.
type Client struct {
	baseURL    *url.URL
	collection string
	http       *http.Client
	userAgent  string
}

const (
	DefaultAddr       = "127.0.0.1:7488"
	DefaultCollection = "tasks"
	defaultUserAgent  = "ticklist/0.1"
	defaultTimeout    = 5 * time.Second
)

// NewClient builds a Client for addr (host:port or URL) and a collection
// name. A non-positive timeout uses the default of five seconds.
func NewClient(addr, collection string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = DefaultCollection
	}
	if strings.Contains(collection, "/") {
		return nil, fmt.Errorf("invalid collection %q", collection)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    base,
		collection: collection,
		http:       &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
	}, nil
}

// Create stores a new document and returns the identifier the service
// assigned to it.
func (c *Client) Create(ctx context.Context, fields task.Fields) (string, error) {
	var payload CreateResponse
	if err := c.do(ctx, http.MethodPost, c.documentsPath(), fields, &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", fmt.Errorf("create response has no id")
	}
	return payload.ID, nil
}

// List returns every document in the collection.
func (c *Client) List(ctx context.Context) ([]task.Task, error) {
	var payload ListResponse
	if err := c.do(ctx, http.MethodGet, c.documentsPath(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Documents, nil
}

// Update sends a partial update containing only the patch's set fields.
func (c *Client) Update(ctx context.Context, id string, patch task.Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	return c.do(ctx, http.MethodPatch, c.documentPath(id), patch, nil)
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.documentPath(id), nil, nil)
}

func (c *Client) documentsPath() string {
	return "/api/collections/" + url.PathEscape(c.collection) + "/documents"
}

func (c *Client) documentPath(id string) string {
	return c.documentsPath() + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newStatusError(method, path, resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError is returned for responses with a 4xx or 5xx status.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is matches task.ErrNoDocument for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == task.ErrNoDocument && e.Code == http.StatusNotFound
}

func newStatusError(method, path string, resp *http.Response) *StatusError {
	se := &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err != nil || len(data) == 0 {
		return se
	}
	var payload ErrorResponse
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		se.Message = payload.Error
	} else {
		se.Message = strings.TrimSpace(string(data))
	}
	return se
}

func parseBaseURL(addr string) (*url.URL, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = DefaultAddr
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse addr %q: %w", addr, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

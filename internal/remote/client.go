package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/starford/echovault/internal/models"
)

const maxErrorBody = 4 << 10

// Client is a bearer-token JSON-over-HTTP implementation of Service.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, token string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("remote: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote: base url must be absolute: %q", baseURL)
	}
	c := &Client{base: u, token: token, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ Service = (*Client)(nil)

// FetchCapturesSince returns one page of unsynced captures created after since.
func (c *Client) FetchCapturesSince(ctx context.Context, since time.Time, limit int) (models.CapturePage, error) {
	q := url.Values{}
	q.Set("since", since.UTC().Format(time.RFC3339Nano))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("synced", "false")

	var resp struct {
		Captures []wireCapture `json:"captures"`
		HasMore  bool          `json:"has_more"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/captures", q, nil, &resp); err != nil {
		return models.CapturePage{}, err
	}

	page := models.CapturePage{HasMore: resp.HasMore, Captures: make([]models.Capture, 0, len(resp.Captures))}
	for _, w := range resp.Captures {
		capture, err := w.model()
		if err != nil {
			return models.CapturePage{}, err
		}
		page.Captures = append(page.Captures, capture)
	}
	return page, nil
}

// AcknowledgeCapture marks a capture as synced on the server.
func (c *Client) AcknowledgeCapture(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, "/api/captures/"+strconv.FormatInt(id, 10)+"/synced", nil, nil, nil)
}

// PendingCount reports how many captures are still unsynced.
func (c *Client) PendingCount(ctx context.Context) (models.Pending, error) {
	var resp struct {
		Count  int    `json:"count"`
		Oldest string `json:"oldest"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/captures/pending", nil, nil, &resp); err != nil {
		return models.Pending{}, err
	}
	p := models.Pending{Count: resp.Count}
	if resp.Oldest != "" {
		ts, err := parseTimestamp(resp.Oldest)
		if err != nil {
			return models.Pending{}, err
		}
		p.Oldest = &ts
	}
	return p, nil
}

// FetchTodos returns the complete todo list.
func (c *Client) FetchTodos(ctx context.Context, includeArchived bool) ([]models.Todo, error) {
	q := url.Values{}
	q.Set("include_archived", strconv.FormatBool(includeArchived))

	var resp struct {
		Todos []wireTodo `json:"todos"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/todos", q, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Todo, 0, len(resp.Todos))
	for _, w := range resp.Todos {
		todo, err := w.model()
		if err != nil {
			return nil, err
		}
		out = append(out, todo)
	}
	return out, nil
}

// CreateTodo creates a todo with the given text.
func (c *Client) CreateTodo(ctx context.Context, text string) (models.Todo, error) {
	var resp wireTodo
	if err := c.do(ctx, http.MethodPost, "/api/todos", nil, map[string]string{"text": text}, &resp); err != nil {
		return models.Todo{}, err
	}
	return resp.model()
}

// UpdateTodo applies a partial update.
func (c *Client) UpdateTodo(ctx context.Context, id int64, patch models.TodoPatch) (models.Todo, error) {
	var resp wireTodo
	if err := c.do(ctx, http.MethodPatch, "/api/todos/"+strconv.FormatInt(id, 10), nil, patch, &resp); err != nil {
		return models.Todo{}, err
	}
	return resp.model()
}

// AudioLink returns an authenticated playback URL for a capture's audio.
func (c *Client) AudioLink(id int64) string {
	u := c.base.JoinPath("api", "captures", strconv.FormatInt(id, 10), "audio")
	if c.token != "" {
		q := url.Values{}
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Method: method, Path: path, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &Error{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   string(bytes.TrimSpace(msg)),
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

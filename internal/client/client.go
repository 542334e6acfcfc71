// Package client talks to the focus server's JSON API.
package client

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

	apperrors "focustimer/internal/errors"
	"focustimer/internal/model"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL        string
	httpClient     *http.Client
	token          func() string
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithToken sets the source of the bearer token sent with every request.
func WithToken(token func() string) Option {
	return func(c *Client) { c.token = token }
}

// WithUnauthorizedHook registers fn to run when an authenticated request is
// rejected with 401.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		token:      func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, email, username, password string) (*AuthResult, error) {
	var result AuthResult
	body := map[string]string{"email": email, "username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var resp struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, username string) (*model.User, error) {
	var resp struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/profile", map[string]string{"username": username}, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var resp struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, label string) (*model.Task, error) {
	var resp struct {
		Task model.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tasks", map[string]string{"label": label}, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	var resp struct {
		Task model.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), patch, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) BulkDeleteTasks(ctx context.Context, ids []string) (int, error) {
	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tasks/bulk-delete", map[string][]string{"ids": ids}, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

func (c *Client) ReorderTasks(ctx context.Context, ids []string) ([]model.Task, error) {
	var resp struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/tasks/reorder", map[string][]string{"ids": ids}, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *Client) GetSettings(ctx context.Context) (*model.Settings, error) {
	var resp struct {
		Settings model.Settings `json:"settings"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Settings, nil
}

func (c *Client) SaveSettings(ctx context.Context, settings model.Settings) (*model.Settings, error) {
	var resp struct {
		Settings model.Settings `json:"settings"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/settings", settings, &resp); err != nil {
		return nil, err
	}
	return &resp.Settings, nil
}

// CreateSession stores one session record. It satisfies timer.SessionWriter.
func (c *Client) CreateSession(ctx context.Context, record model.SessionRecord) error {
	return c.do(ctx, http.MethodPost, "/api/sessions", record, nil)
}

func (c *Client) ListSessions(ctx context.Context, period string) ([]model.Session, error) {
	var resp struct {
		Sessions []model.Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions"+periodQuery(period), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) Stats(ctx context.Context, period string) (*model.SessionStats, error) {
	var resp struct {
		Stats model.SessionStats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions/stats"+periodQuery(period), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Stats, nil
}

func periodQuery(period string) string {
	if period == "" {
		return ""
	}
	return "?period=" + url.QueryEscape(period)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized && token != "" && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) *apperrors.APIError {
	var envelope struct {
		Error *apperrors.APIError `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error == nil {
		message := strings.TrimSpace(string(raw))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return apperrors.New(resp.StatusCode, "http_error", message)
	}
	envelope.Error.Status = resp.StatusCode
	return envelope.Error
}

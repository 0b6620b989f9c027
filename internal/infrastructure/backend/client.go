// Package backend is the HTTP client for the Atreo REST API. Every call
// carries the caller's bearer token; non-2xx answers become
// *domain.APIError and transport failures wrap domain.ErrBackendUnavailable.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/atreo/portal/internal/api/metrics"
	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseBody = 10 << 20
)

// Backend endpoints, relative to the base URL.
const (
	pathLogin       = "/auth/login"
	pathSignup      = "/auth/signup"
	pathLogout      = "/auth/logout"
	pathCurrentUser = "/auth/me"
	pathStats       = "/dashboard/stats"
	pathAssistant   = "/ai/query"
	pathHealth      = "/health"
)

// Client implements ports.Backend over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     zerolog.Logger
}

// Config captures the settings for the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

type authPayload struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	body := map[string]string{"email": email, "password": password}
	var out authPayload
	if err := c.doJSON(ctx, "login", http.MethodPost, pathLogin, "", body, &out); err != nil {
		return "", nil, err
	}
	if out.Token == "" || out.User == nil {
		return "", nil, fmt.Errorf("login: %w", domain.ErrMalformedResponse)
	}
	return out.Token, out.User, nil
}

func (c *Client) Signup(ctx context.Context, in ports.SignupInput) (string, *domain.User, error) {
	body := map[string]string{
		"name":     in.Name,
		"email":    in.Email,
		"password": in.Password,
		"role":     string(in.Role),
	}
	var out authPayload
	if err := c.doJSON(ctx, "signup", http.MethodPost, pathSignup, "", body, &out); err != nil {
		return "", nil, err
	}
	if out.Token == "" || out.User == nil {
		return "", nil, fmt.Errorf("signup: %w", domain.ErrMalformedResponse)
	}
	return out.Token, out.User, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, "logout", http.MethodPost, pathLogout, token, nil, nil)
}

// CurrentUser accepts either {"user": {...}} or the bare user object.
func (c *Client) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, "current_user", http.MethodGet, pathCurrentUser, token, nil, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil || u.ID == "" {
		return nil, fmt.Errorf("current user: %w", domain.ErrMalformedResponse)
	}
	return &u, nil
}

func (c *Client) DashboardStats(ctx context.Context, token string, tf domain.Timeframe) (json.RawMessage, error) {
	path := pathStats + "?" + url.Values{"timeframe": {string(tf)}}.Encode()
	var out json.RawMessage
	if err := c.doJSON(ctx, "dashboard_stats", http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Ask(ctx context.Context, token, query string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, "assistant", http.MethodPost, pathAssistant, token, map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Forward relays req and returns the backend's answer. Only transport
// failures and non-2xx answers are errors.
func (c *Client) Forward(ctx context.Context, token string, req ports.ForwardRequest) (*ports.ForwardResponse, error) {
	path := "/" + url.PathEscape(req.Resource)
	if req.Path != "" {
		path += "/" + req.Path
	}
	if len(req.Query) > 0 {
		path += "?" + req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := c.newRequest(ctx, req.Method, path, token, body)
	if err != nil {
		return nil, err
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	resp, data, err := c.send(httpReq, "forward")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, data)
	}

	header := http.Header{}
	for _, k := range []string{"Content-Disposition", "Cache-Control", "ETag", "Last-Modified"} {
		if v := resp.Header.Get(k); v != "" {
			header.Set(k, v)
		}
	}
	return &ports.ForwardResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      header,
		Body:        data,
	}, nil
}

// Ping reports whether the backend answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, "health", http.MethodGet, pathHealth, "", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, data, err := c.send(req, endpoint)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: %v", endpoint, domain.ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid path %q: %w", path, err)
	}
	target := *c.baseURL
	target.Path = c.baseURL.Path + ref.Path
	target.RawQuery = ref.RawQuery

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send performs req and reads the whole body, recording the call duration.
func (c *Client) send(req *http.Request, endpoint string) (*http.Response, []byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		c.log.Warn().Err(err).Str("endpoint", endpoint).Msg("backend request failed")
		return nil, nil, fmt.Errorf("%s: %w: %v", endpoint, domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	metrics.BackendRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: read body: %v", endpoint, domain.ErrBackendUnavailable, err)
	}

	c.log.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("backend request")
	return resp, data, nil
}

// apiError builds a *domain.APIError from a non-2xx answer, taking the
// message from a "message" or "error" field when the body is JSON.
func apiError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	}
	return &domain.APIError{Status: status, Message: msg}
}

var _ ports.Backend = (*Client)(nil)

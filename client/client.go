// Package client is a Go consumer of the API with the same session handling
// the mobile app uses: a bearer access token kept in memory, the refresh
// token living in an http-only cookie, and a single transparent refresh
// retry when the access token goes stale.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"studentms/internal/model"
)

// ErrSessionExpired is returned when the refresh token itself is rejected.
// The caller must log in again.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%s", e.Status, e.Code)
}

type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.Mutex
	accessToken string
}

func New(baseURL string) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

type LoginResult struct {
	AccessToken string     `json:"accessToken"`
	User        model.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.call(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result, false)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.accessToken = result.AccessToken
	c.mu.Unlock()
	return &result, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, "/auth/logout", nil, nil, false)
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
	return err
}

func (c *Client) Me(ctx context.Context, out interface{}) error {
	return c.Get(ctx, "/auth/me", out)
}

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.call(ctx, http.MethodGet, path, nil, out, true)
}

func (c *Client) Post(ctx context.Context, path string, payload, out interface{}) error {
	return c.call(ctx, http.MethodPost, path, payload, out, true)
}

func (c *Client) Put(ctx context.Context, path string, payload, out interface{}) error {
	return c.call(ctx, http.MethodPut, path, payload, out, true)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.call(ctx, http.MethodDelete, path, nil, out, true)
}

// call performs one request. Authenticated calls that come back with an
// invalid_token error trigger exactly one refresh and one retry; a second
// failure surfaces as-is, so a half-broken server cannot loop the client.
func (c *Client) call(ctx context.Context, method, path string, payload, out interface{}, authed bool) error {
	token := c.token()
	status, code, err := c.do(ctx, method, path, payload, out, token)
	if err != nil {
		return err
	}
	if status < 300 {
		return nil
	}
	if !authed || code != "invalid_token" {
		return &APIError{Status: status, Code: code}
	}

	token, err = c.refresh(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			// Keep the failure that triggered the refresh visible to callers.
			return fmt.Errorf("%w: %w", ErrSessionExpired, &APIError{Status: status, Code: code})
		}
		return err
	}
	status, code, err = c.do(ctx, method, path, payload, out, token)
	if err != nil {
		return err
	}
	if status >= 300 {
		return &APIError{Status: status, Code: code}
	}
	return nil
}

// refresh exchanges the cookie for a new access token. If another goroutine
// already refreshed while this one was waiting on the lock, its token is
// reused instead of hitting the server again.
func (c *Client) refresh(ctx context.Context, staleToken string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && c.accessToken != staleToken {
		return c.accessToken, nil
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	status, _, err := c.do(ctx, http.MethodPost, "/auth/refresh-token", nil, &result, "")
	if err != nil {
		return "", err
	}
	if status >= 300 || result.AccessToken == "" {
		c.accessToken = ""
		return "", ErrSessionExpired
	}
	c.accessToken = result.AccessToken
	return c.accessToken, nil
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}, token string) (int, string, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, "", err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, "", err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		return resp.StatusCode, apiErr.Error, nil
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, "", fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, "", nil
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeAPI mimics the server's token behavior: one valid access token at a
// time, rotated through /auth/refresh-token when the refresh cookie matches.
type fakeAPI struct {
	mu           sync.Mutex
	accessToken  string
	refreshValue string
	tokenSeq     int
	refreshCalls int
	dataCalls    int
	failRefresh  bool
}

func (f *fakeAPI) nextToken() string {
	f.tokenSeq++
	return fmt.Sprintf("access-%d", f.tokenSeq)
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.accessToken = f.nextToken()
		f.refreshValue = "refresh-cookie-value"
		http.SetCookie(w, &http.Cookie{
			Name:     "refresh_token",
			Value:    f.refreshValue,
			Path:     "/auth",
			HttpOnly: true,
		})
		json.NewEncoder(w).Encode(map[string]interface{}{
			"accessToken": f.accessToken,
			"user":        map[string]string{"id": "u1", "role": "student"},
		})
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.refreshCalls++
		cookie, err := r.Cookie("refresh_token")
		if f.failRefresh || err != nil || cookie.Value != f.refreshValue {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_refresh_token"})
			return
		}
		f.accessToken = f.nextToken()
		json.NewEncoder(w).Encode(map[string]string{"accessToken": f.accessToken})
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.dataCalls++
		if r.Header.Get("Authorization") != "Bearer "+f.accessToken {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_token"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"value": "ok"})
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"})
	})
	return mux
}

// invalidate rotates the server-side token without telling the client, the
// same as an access token expiring.
func (f *fakeAPI) invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessToken = f.nextToken()
}

func setup(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{}
	ts := httptest.NewServer(api.handler())
	t.Cleanup(ts.Close)
	c, err := New(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	return api, c
}

func TestLoginAndGet(t *testing.T) {
	api, c := setup(t)
	result, err := c.Login(context.Background(), "a@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("no access token")
	}

	var out map[string]string
	if err := c.Get(context.Background(), "/data", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out["value"] != "ok" {
		t.Errorf("value = %q", out["value"])
	}
	if api.refreshCalls != 0 {
		t.Errorf("refreshCalls = %d, want 0", api.refreshCalls)
	}
}

func TestStaleTokenRefreshesOnceAndRetries(t *testing.T) {
	api, c := setup(t)
	if _, err := c.Login(context.Background(), "a@example.com", "password123"); err != nil {
		t.Fatal(err)
	}
	api.invalidate()

	var out map[string]string
	if err := c.Get(context.Background(), "/data", &out); err != nil {
		t.Fatalf("get after invalidation: %v", err)
	}
	if api.refreshCalls != 1 {
		t.Errorf("refreshCalls = %d, want 1", api.refreshCalls)
	}
	if api.dataCalls != 2 {
		t.Errorf("dataCalls = %d, want 2 (fail then retry)", api.dataCalls)
	}

	// Follow-up calls ride the refreshed token with no further refreshes.
	if err := c.Get(context.Background(), "/data", &out); err != nil {
		t.Fatalf("follow-up get: %v", err)
	}
	if api.refreshCalls != 1 {
		t.Errorf("refreshCalls after follow-up = %d, want 1", api.refreshCalls)
	}
}

func TestRefreshFailureIsSessionExpired(t *testing.T) {
	api, c := setup(t)
	if _, err := c.Login(context.Background(), "a@example.com", "password123"); err != nil {
		t.Fatal(err)
	}
	api.invalidate()
	api.mu.Lock()
	api.failRefresh = true
	api.mu.Unlock()

	err := c.Get(context.Background(), "/data", nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	// The failure that triggered the refresh stays in the chain.
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want wrapped APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != "invalid_token" {
		t.Errorf("wrapped error = %+v, want 401 invalid_token", apiErr)
	}
	if api.refreshCalls != 1 {
		t.Errorf("refreshCalls = %d, want 1", api.refreshCalls)
	}
}

// TestRetryHappensAtMostOnce pins the loop guard: a server whose resource
// endpoint keeps answering invalid_token even after a successful refresh gets
// exactly one refresh and one retry, then the error surfaces.
func TestRetryHappensAtMostOnce(t *testing.T) {
	var mu sync.Mutex
	refreshCalls, dataCalls := 0, 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path == "/auth/refresh-token" {
			refreshCalls++
			json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh"})
			return
		}
		dataCalls++
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_token"})
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	err = c.Get(context.Background(), "/data", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "invalid_token" {
		t.Fatalf("err = %v, want APIError invalid_token", err)
	}
	if refreshCalls != 1 {
		t.Errorf("refreshCalls = %d, want exactly 1", refreshCalls)
	}
	if dataCalls != 2 {
		t.Errorf("dataCalls = %d, want 2", dataCalls)
	}
}

func TestNonTokenErrorsDoNotRefresh(t *testing.T) {
	api, c := setup(t)
	if _, err := c.Login(context.Background(), "a@example.com", "password123"); err != nil {
		t.Fatal(err)
	}

	err := c.Get(context.Background(), "/forbidden", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Code != "forbidden" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if api.refreshCalls != 0 {
		t.Errorf("refreshCalls = %d, want 0", api.refreshCalls)
	}
}

func TestConcurrentStaleCallsRefreshOnce(t *testing.T) {
	api, c := setup(t)
	if _, err := c.Login(context.Background(), "a@example.com", "password123"); err != nil {
		t.Fatal(err)
	}
	api.invalidate()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Get(context.Background(), "/data", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("goroutine %d: %v", i, err)
		}
	}
	if api.refreshCalls != 1 {
		t.Errorf("refreshCalls = %d, want 1", api.refreshCalls)
	}
}

// Without a login there is no refresh cookie, so the one refresh attempt
// fails and the caller learns the session is gone.
func TestNoSessionSurfacesSessionExpired(t *testing.T) {
	api, c := setup(t)
	err := c.Get(context.Background(), "/data", nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if api.refreshCalls != 1 {
		t.Errorf("refreshCalls = %d, want 1", api.refreshCalls)
	}
}

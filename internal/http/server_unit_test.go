package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"studentms/internal/auth"
	"studentms/internal/config"
	"studentms/internal/model"
	"studentms/internal/ratelimit"
)

func testConfig() config.Config {
	return config.Config{
		JWTAccessSecret:  "unit-test-access-secret",
		JWTRefreshSecret: "unit-test-refresh-secret",
		JWTIssuer:        "studentms-test",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(testConfig(), nil, nil, ratelimit.New(nil, 10, time.Minute), zap.NewNop())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body["error"]
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tc := range cases {
		if got := bearerToken(tc.header); got != tc.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestNormalizeAttendanceStatus(t *testing.T) {
	for _, value := range []string{"present", "Present", " ABSENT ", "late", "excused"} {
		if _, err := normalizeAttendanceStatus(value); err != nil {
			t.Errorf("normalizeAttendanceStatus(%q) unexpected error: %v", value, err)
		}
	}
	if _, err := normalizeAttendanceStatus("asleep"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestLoginAttemptKey(t *testing.T) {
	cases := []struct {
		email, remoteAddr, want string
	}{
		{"a@example.com", "203.0.113.7:51234", "a@example.com|203.0.113.7"},
		{"a@example.com", "[2001:db8::1]:443", "a@example.com|2001:db8::1"},
		{"a@example.com", "203.0.113.7", "a@example.com|203.0.113.7"},
	}
	for _, tc := range cases {
		if got := loginAttemptKey(tc.email, tc.remoteAddr); got != tc.want {
			t.Errorf("loginAttemptKey(%q, %q) = %q, want %q", tc.email, tc.remoteAddr, got, tc.want)
		}
	}
	a := loginAttemptKey("a@example.com", "203.0.113.7:51234")
	b := loginAttemptKey("a@example.com", "198.51.100.9:51234")
	if a == b {
		t.Errorf("keys for different client hosts collide: %q", a)
	}
}

func TestAuthMiddleware(t *testing.T) {
	server := testServer(t)
	var gotClaims *auth.Claims
	handler := server.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = claimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if code := decodeError(t, rec); code != "missing_token" {
			t.Errorf("error = %q, want missing_token", code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if code := decodeError(t, rec); code != "invalid_token" {
			t.Errorf("error = %q, want invalid_token", code)
		}
	})

	t.Run("refresh token rejected as access token", func(t *testing.T) {
		token, err := auth.NewToken(server.cfg.JWTRefreshSecret, server.cfg.JWTIssuer, time.Hour, "user-1", model.RoleStudent)
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.NewToken(server.cfg.JWTAccessSecret, server.cfg.JWTIssuer, time.Minute, "user-1", model.RoleTeacher)
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotClaims == nil || gotClaims.UserID != "user-1" || gotClaims.Role != model.RoleTeacher {
			t.Errorf("claims = %+v, want user-1/teacher", gotClaims)
		}
	})
}

func TestRequireRole(t *testing.T) {
	server := testServer(t)
	probe := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := server.authMiddleware(server.requireRole(model.RoleAdmin)(probe))

	request := func(role model.Role) *httptest.ResponseRecorder {
		token, err := auth.NewToken(server.cfg.JWTAccessSecret, server.cfg.JWTIssuer, time.Minute, "user-1", role)
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := request(model.RoleAdmin); rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
	rec := request(model.RoleStudent)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student status = %d, want 403", rec.Code)
	}
	if code := decodeError(t, rec); code != "forbidden" {
		t.Errorf("error = %q, want forbidden", code)
	}
}

func TestRefreshMissingCookie(t *testing.T) {
	server := testServer(t)
	rec := httptest.NewRecorder()
	server.handleRefresh(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := decodeError(t, rec); code != "missing_refresh_token" {
		t.Errorf("error = %q, want missing_refresh_token", code)
	}
}

func TestRefreshInvalidCookie(t *testing.T) {
	server := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	server.handleRefresh(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := decodeError(t, rec); code != "invalid_refresh_token" {
		t.Errorf("error = %q, want invalid_refresh_token", code)
	}

	cleared := false
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == refreshCookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected refresh cookie to be cleared")
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	server := testServer(t)
	rec := httptest.NewRecorder()
	server.handleLogout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected a refresh cookie header")
	}
	if cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Errorf("cookie not cleared: %+v", cookie)
	}
	if !cookie.HttpOnly || cookie.Path != "/auth" {
		t.Errorf("cookie attributes wrong: %+v", cookie)
	}
}

func TestRefreshCookieAttributes(t *testing.T) {
	server := testServer(t)
	rec := httptest.NewRecorder()
	server.setRefreshCookie(rec, "token-value", time.Hour)

	header := rec.Header().Get("Set-Cookie")
	if !strings.Contains(header, "HttpOnly") {
		t.Error("cookie must be http-only")
	}
	if !strings.Contains(header, "Path=/auth") {
		t.Error("cookie must be scoped to /auth")
	}
}

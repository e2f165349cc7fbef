package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studentms/internal/config"
	"studentms/internal/crypto"
	"studentms/internal/db"
	"studentms/internal/docstore"
	"studentms/internal/model"
	"studentms/internal/ratelimit"
)

// TestServerIntegration walks the whole API against real backing stores. It
// needs MYSQL_TEST_DSN and MONGO_TEST_URI; without them it skips.
func TestServerIntegration(t *testing.T) {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	mongoURI := os.Getenv("MONGO_TEST_URI")
	if dsn == "" || mongoURI == "" {
		t.Skip("MYSQL_TEST_DSN and MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sqlDB, err := db.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open mysql: %v", err)
	}
	defer sqlDB.Close()
	if err := db.Migrate(sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mongoClient, err := docstore.Connect(ctx, mongoURI)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	database := fmt.Sprintf("studentms_test_%d", time.Now().UnixNano())
	docs := docstore.NewStore(mongoClient, database)
	defer mongoClient.Database(database).Drop(context.Background())
	if err := docs.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	cfg := config.Config{
		JWTAccessSecret:  "integration-access-secret",
		JWTRefreshSecret: "integration-refresh-secret",
		JWTIssuer:        "studentms-test",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
	}
	server := NewServer(cfg, db.NewStore(sqlDB), docs, ratelimit.New(nil, 10, time.Minute), zap.NewNop())
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	adminEmail := fmt.Sprintf("admin-%s@example.com", uuid.NewString()[:8])
	seedUser(ctx, t, docs, adminEmail, model.RoleAdmin)

	// A bad password is rejected before any token is minted.
	if status, body := rawLogin(t, ts, adminEmail, "wrong-password"); status != http.StatusUnauthorized || body["error"] != "invalid_credentials" {
		t.Fatalf("login with wrong password: status=%d body=%v", status, body)
	}

	adminToken := login(t, ts, adminEmail, "password123")

	// Admin provisions a teacher and a student.
	teacherEmail := fmt.Sprintf("teacher-%s@example.com", uuid.NewString()[:8])
	var teacher struct {
		ID int64 `json:"id"`
	}
	doJSON(t, ts, http.MethodPost, "/teachers", adminToken, map[string]interface{}{
		"name": "Teacher One", "email": teacherEmail, "password": "password123", "department": "Math",
	}, http.StatusCreated, &teacher)

	studentEmail := fmt.Sprintf("student-%s@example.com", uuid.NewString()[:8])
	var student struct {
		ID int64 `json:"id"`
	}
	doJSON(t, ts, http.MethodPost, "/students", adminToken, map[string]interface{}{
		"name": "Student One", "email": studentEmail, "password": "password123", "studentNumber": "S-100",
	}, http.StatusCreated, &student)

	var class struct {
		ID int64 `json:"id"`
	}
	doJSON(t, ts, http.MethodPost, "/class", adminToken, map[string]interface{}{
		"name": "Algebra", "subject": "Math", "teacherId": teacher.ID, "room": "B12",
	}, http.StatusCreated, &class)

	doJSON(t, ts, http.MethodPost, "/enrollment", adminToken, map[string]interface{}{
		"classId": class.ID, "studentId": student.ID,
	}, http.StatusCreated, nil)

	teacherToken := login(t, ts, teacherEmail, "password123")
	studentToken := login(t, ts, studentEmail, "password123")

	// Role gates.
	doJSON(t, ts, http.MethodGet, "/teachers", studentToken, nil, http.StatusForbidden, nil)
	doJSON(t, ts, http.MethodGet, "/class/specific-class", studentToken, nil, http.StatusForbidden, nil)

	// Teacher sees exactly their class.
	var myClasses []map[string]interface{}
	doJSON(t, ts, http.MethodGet, "/class/specific-class", teacherToken, nil, http.StatusOK, &myClasses)
	if len(myClasses) != 1 {
		t.Fatalf("teacher classes = %d, want 1", len(myClasses))
	}

	// Teacher grades the enrolled student.
	var grade struct {
		ID int64 `json:"id"`
	}
	doJSON(t, ts, http.MethodPost, "/grades", teacherToken, map[string]interface{}{
		"classId": class.ID, "studentId": student.ID, "term": "2026-S1", "score": 88.5,
	}, http.StatusCreated, &grade)

	var myGrades []model.Grade
	doJSON(t, ts, http.MethodGet, "/grades/me", studentToken, nil, http.StatusOK, &myGrades)
	if len(myGrades) != 1 || myGrades[0].Score != 88.5 {
		t.Fatalf("student grades = %+v", myGrades)
	}

	// Assignment and submission round trip.
	var assignment struct {
		ID int64 `json:"id"`
	}
	doJSON(t, ts, http.MethodPost, "/assignment", teacherToken, map[string]interface{}{
		"classId": class.ID, "title": "Homework 1", "dueAt": time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
	}, http.StatusCreated, &assignment)

	var submission struct {
		ID int64 `json:"id"`
	}
	doJSON(t, ts, http.MethodPost, "/submissions", studentToken, map[string]interface{}{
		"assignmentId": assignment.ID, "content": "my answers",
	}, http.StatusCreated, &submission)

	doJSON(t, ts, http.MethodPut, fmt.Sprintf("/submissions/%d/score", submission.ID), teacherToken, map[string]interface{}{
		"score": 92.0,
	}, http.StatusOK, nil)

	// Attendance upsert.
	today := time.Now().UTC().Format("2006-01-02")
	doJSON(t, ts, http.MethodPost, "/attendance", teacherToken, map[string]interface{}{
		"classId": class.ID, "date": today,
		"records": []map[string]interface{}{{"studentId": student.ID, "status": "late"}},
	}, http.StatusOK, nil)
	doJSON(t, ts, http.MethodPost, "/attendance", teacherToken, map[string]interface{}{
		"classId": class.ID, "date": today,
		"records": []map[string]interface{}{{"studentId": student.ID, "status": "present"}},
	}, http.StatusOK, nil)

	var records []model.Attendance
	doJSON(t, ts, http.MethodGet, fmt.Sprintf("/attendance/class/%d?date=%s", class.ID, today), teacherToken, nil, http.StatusOK, &records)
	if len(records) != 1 || records[0].Status != "present" {
		t.Fatalf("attendance = %+v, want single present row", records)
	}

	// Admin sees the audit trail.
	var activity []map[string]interface{}
	doJSON(t, ts, http.MethodGet, "/activity", adminToken, nil, http.StatusOK, &activity)
	if len(activity) == 0 {
		t.Fatal("expected activity entries")
	}

	// Refresh idempotence: the same cookie mints two distinct access tokens,
	// both independently valid.
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	session := &http.Client{Jar: jar}
	payload, _ := json.Marshal(map[string]string{"email": teacherEmail, "password": "password123"})
	loginResp, err := session.Post(ts.URL+"/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	loginResp.Body.Close()
	first := refreshToken(t, session, ts)
	second := refreshToken(t, session, ts)
	if first == second {
		t.Fatal("two refreshes returned the same access token")
	}
	for _, token := range []string{first, second} {
		doJSON(t, ts, http.MethodGet, "/auth/me", token, nil, http.StatusOK, nil)
	}

	// Deleting the student removes the credential; sign-in must fail.
	doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/students/%d", student.ID), adminToken, nil, http.StatusOK, nil)
	status, body := rawLogin(t, ts, studentEmail, "password123")
	if status != http.StatusUnauthorized || body["error"] != "invalid_credentials" {
		t.Fatalf("login after delete: status=%d body=%v", status, body)
	}
}

func refreshToken(t *testing.T, session *http.Client, ts *httptest.Server) string {
	t.Helper()
	resp, err := session.Post(ts.URL+"/auth/refresh-token", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.AccessToken == "" {
		t.Fatal("refresh returned empty token")
	}
	return body.AccessToken
}

func seedUser(ctx context.Context, t *testing.T, docs *docstore.Store, email string, role model.Role) {
	t.Helper()
	hash, err := crypto.HashPassword("password123")
	if err != nil {
		t.Fatal(err)
	}
	err = docs.CreateUser(ctx, model.User{
		ID:           uuid.NewString(),
		Name:         "Seeded " + string(role),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func login(t *testing.T, ts *httptest.Server, email, password string) string {
	t.Helper()
	status, body := rawLogin(t, ts, email, password)
	if status != http.StatusOK {
		t.Fatalf("login %s: status=%d body=%v", email, status, body)
	}
	token, _ := body["accessToken"].(string)
	if token == "" {
		t.Fatalf("login %s: no access token in %v", email, body)
	}
	return token
}

func rawLogin(t *testing.T, ts *httptest.Server, email, password string) (int, map[string]interface{}) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(ts.URL+"/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, payload interface{}, wantStatus int, out interface{}) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status=%d want=%d body=%s", method, path, resp.StatusCode, wantStatus, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
}

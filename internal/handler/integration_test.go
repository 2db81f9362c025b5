package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/taskdeck/internal/handler"
	"github.com/msomdec/taskdeck/internal/repository/sqlite"
	"github.com/msomdec/taskdeck/internal/service"
	"github.com/msomdec/taskdeck/internal/token"
)

// envelope mirrors the JSON response shape of every endpoint.
type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details map[string][]string `json:"details"`
}

type authData struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

type taskData struct {
	Task struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		DueDate     *string `json:"dueDate"`
		Priority    string  `json:"priority"`
		Status      string  `json:"status"`
		CompletedAt *string `json:"completedAt"`
	} `json:"task"`
}

type listData struct {
	Tasks []struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
	} `json:"tasks"`
	Stats struct {
		Active    int `json:"active"`
		Completed int `json:"completed"`
		Overdue   int `json:"overdue"`
		Total     int `json:"total"`
	} `json:"stats"`
	Total int `json:"total"`
}

const (
	testAccessSecret  = "integration-access-secret-0000000001"
	testRefreshSecret = "integration-refresh-secret-000000001"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	codec := token.NewCodec(
		testAccessSecret, testRefreshSecret,
		time.Hour, 7*24*time.Hour, 30*24*time.Hour,
	)
	auth := service.NewAuthService(db.Users(), db.Sessions(), codec, 4)
	tasks := service.NewTaskService(db.Tasks())
	limiter := service.NewLoginLimiter(100, 100)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, tasks, limiter)

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, accessToken string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func signup(t *testing.T, srv *httptest.Server, email, password string) authData {
	t.Helper()
	status, env := doRequest(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("signup %s: status %d, code %s", email, status, env.Code)
	}
	var data authData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode signup data: %v", err)
	}
	return data
}

func createTask(t *testing.T, srv *httptest.Server, accessToken string, body map[string]any) taskData {
	t.Helper()
	status, env := doRequest(t, srv, http.MethodPost, "/tasks", accessToken, body)
	if status != http.StatusCreated {
		t.Fatalf("create task: status %d, code %s", status, env.Code)
	}
	var data taskData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode task data: %v", err)
	}
	return data
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff header, got %q", got)
	}
}

func TestSignupAndProfile(t *testing.T) {
	srv := newTestServer(t)

	data := signup(t, srv, "alice@example.com", "password123")
	if data.AccessToken == "" || data.RefreshToken == "" {
		t.Fatal("expected a token pair from signup")
	}
	if data.User.Email != "alice@example.com" {
		t.Fatalf("expected alice@example.com, got %s", data.User.Email)
	}
	if data.ExpiresIn <= 0 {
		t.Fatalf("expected a positive expiresIn, got %d", data.ExpiresIn)
	}

	status, env := doRequest(t, srv, http.MethodGet, "/auth/profile", data.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("profile: status %d, code %s", status, env.Code)
	}
	if !env.Success {
		t.Fatal("expected success envelope")
	}
}

func TestSignup_Duplicate(t *testing.T) {
	srv := newTestServer(t)
	signup(t, srv, "bob@example.com", "password123")

	status, env := doRequest(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    "BOB@example.com",
		"password": "password456",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if env.Code != "USER_ALREADY_EXISTS" {
		t.Fatalf("expected USER_ALREADY_EXISTS, got %s", env.Code)
	}
}

func TestSignup_Validation(t *testing.T) {
	srv := newTestServer(t)

	status, env := doRequest(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    "not-an-email",
		"password": "123",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if env.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %s", env.Code)
	}
	if len(env.Details["email"]) == 0 || len(env.Details["password"]) == 0 {
		t.Fatalf("expected email and password details, got %v", env.Details)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := newTestServer(t)
	signup(t, srv, "carol@example.com", "password123")

	status, env := doRequest(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "carol@example.com",
		"password": "wrongpassword",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if env.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %s", env.Code)
	}
}

func TestRefreshFlow(t *testing.T) {
	srv := newTestServer(t)
	data := signup(t, srv, "dave@example.com", "password123")

	status, env := doRequest(t, srv, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refreshToken": data.RefreshToken,
	})
	if status != http.StatusOK {
		t.Fatalf("refresh: status %d, code %s", status, env.Code)
	}
	var refreshed authData
	if err := json.Unmarshal(env.Data, &refreshed); err != nil {
		t.Fatalf("decode refresh data: %v", err)
	}

	// The superseded token is rejected.
	status, env = doRequest(t, srv, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refreshToken": data.RefreshToken,
	})
	if status != http.StatusUnauthorized || env.Code != "INVALID_REFRESH_TOKEN" {
		t.Fatalf("expected 401 INVALID_REFRESH_TOKEN, got %d %s", status, env.Code)
	}

	// The fresh access token authenticates.
	status, _ = doRequest(t, srv, http.MethodGet, "/auth/profile", refreshed.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("profile with refreshed token: status %d", status)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	srv := newTestServer(t)
	data := signup(t, srv, "erin@example.com", "password123")

	status, env := doRequest(t, srv, http.MethodPost, "/auth/logout", data.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("logout: status %d, code %s", status, env.Code)
	}

	status, env = doRequest(t, srv, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refreshToken": data.RefreshToken,
	})
	if status != http.StatusUnauthorized || env.Code != "INVALID_REFRESH_TOKEN" {
		t.Fatalf("expected 401 INVALID_REFRESH_TOKEN after logout, got %d %s", status, env.Code)
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	srv := newTestServer(t)

	status, env := doRequest(t, srv, http.MethodGet, "/tasks", "", nil)
	if status != http.StatusUnauthorized || env.Code != "MISSING_TOKEN" {
		t.Fatalf("no token: expected 401 MISSING_TOKEN, got %d %s", status, env.Code)
	}

	status, env = doRequest(t, srv, http.MethodGet, "/tasks", "garbage-token", nil)
	if status != http.StatusUnauthorized || env.Code != "INVALID_TOKEN" {
		t.Fatalf("bad token: expected 401 INVALID_TOKEN, got %d %s", status, env.Code)
	}
}

func TestProtectedRoutes_OrphanedToken(t *testing.T) {
	srv := newTestServer(t)

	// Correctly signed, but the user it names was never created. Still an
	// authentication failure, not a resource 404.
	codec := token.NewCodec(
		testAccessSecret, testRefreshSecret,
		time.Hour, 7*24*time.Hour, 30*24*time.Hour,
	)
	orphan, err := codec.SignAccess("no-such-user-id", "ghost@example.com")
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	status, env := doRequest(t, srv, http.MethodGet, "/auth/profile", orphan, nil)
	if status != http.StatusUnauthorized || env.Code != "INVALID_TOKEN" {
		t.Fatalf("orphaned token: expected 401 INVALID_TOKEN, got %d %s", status, env.Code)
	}
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)
	auth := signup(t, srv, "frank@example.com", "password123")
	tok := auth.AccessToken

	created := createTask(t, srv, tok, map[string]any{
		"title":    "Ship release",
		"dueDate":  "2026-09-15",
		"priority": "high",
	})
	if created.Task.Status != "active" {
		t.Fatalf("expected active status, got %s", created.Task.Status)
	}
	if created.Task.DueDate == nil {
		t.Fatal("expected due date to be set")
	}
	id := created.Task.ID

	// List shows it alongside stats.
	status, env := doRequest(t, srv, http.MethodGet, "/tasks", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d, code %s", status, env.Code)
	}
	var list listData
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list data: %v", err)
	}
	if list.Total != 1 || len(list.Tasks) != 1 {
		t.Fatalf("expected 1 task, got total=%d len=%d", list.Total, len(list.Tasks))
	}
	if list.Stats.Active != 1 {
		t.Fatalf("expected 1 active in stats, got %d", list.Stats.Active)
	}

	// Partial update.
	status, env = doRequest(t, srv, http.MethodPut, "/tasks/"+id, tok, map[string]any{
		"title": "Ship the release",
	})
	if status != http.StatusOK {
		t.Fatalf("update: status %d, code %s", status, env.Code)
	}
	var updated taskData
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode update data: %v", err)
	}
	if updated.Task.Title != "Ship the release" {
		t.Fatalf("expected updated title, got %q", updated.Task.Title)
	}
	if updated.Task.DueDate == nil {
		t.Fatal("expected due date untouched by partial update")
	}

	// Complete.
	status, env = doRequest(t, srv, http.MethodPatch, "/tasks/"+id+"/complete", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("complete: status %d, code %s", status, env.Code)
	}
	var completed taskData
	if err := json.Unmarshal(env.Data, &completed); err != nil {
		t.Fatalf("decode complete data: %v", err)
	}
	if completed.Task.Status != "completed" || completed.Task.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %s", completed.Task.Status)
	}

	// Delete, then the task is gone from reads.
	status, env = doRequest(t, srv, http.MethodDelete, "/tasks/"+id, tok, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: status %d, code %s", status, env.Code)
	}
	status, env = doRequest(t, srv, http.MethodGet, "/tasks/"+id, tok, nil)
	if status != http.StatusNotFound || env.Code != "NOT_FOUND" {
		t.Fatalf("get after delete: expected 404 NOT_FOUND, got %d %s", status, env.Code)
	}
	status, env = doRequest(t, srv, http.MethodPut, "/tasks/"+id, tok, map[string]any{"title": "back from the dead"})
	if status != http.StatusNotFound || env.Code != "NOT_FOUND" {
		t.Fatalf("update after delete: expected 404 NOT_FOUND, got %d %s", status, env.Code)
	}
	status, env = doRequest(t, srv, http.MethodDelete, "/tasks/"+id, tok, nil)
	if status != http.StatusNotFound || env.Code != "NOT_FOUND" {
		t.Fatalf("second delete: expected 404 NOT_FOUND, got %d %s", status, env.Code)
	}
}

func TestTaskIsolationBetweenUsers(t *testing.T) {
	srv := newTestServer(t)
	alice := signup(t, srv, "alice@example.com", "password123")
	mallory := signup(t, srv, "mallory@example.com", "password123")

	created := createTask(t, srv, alice.AccessToken, map[string]any{
		"title":    "Private plans",
		"priority": "medium",
	})

	// Another user cannot read, update, or delete it.
	status, env := doRequest(t, srv, http.MethodGet, "/tasks/"+created.Task.ID, mallory.AccessToken, nil)
	if status != http.StatusNotFound || env.Code != "NOT_FOUND" {
		t.Fatalf("foreign get: expected 404 NOT_FOUND, got %d %s", status, env.Code)
	}
	status, env = doRequest(t, srv, http.MethodDelete, "/tasks/"+created.Task.ID, mallory.AccessToken, nil)
	if status != http.StatusNotFound || env.Code != "NOT_FOUND" {
		t.Fatalf("foreign delete: expected 404 NOT_FOUND, got %d %s", status, env.Code)
	}

	// And it never shows up in their listing.
	status, env = doRequest(t, srv, http.MethodGet, "/tasks", mallory.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	var list listData
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list data: %v", err)
	}
	if list.Total != 0 {
		t.Fatalf("expected empty listing, got %d tasks", list.Total)
	}
}

func TestTaskList_QueryValidation(t *testing.T) {
	srv := newTestServer(t)
	auth := signup(t, srv, "grace@example.com", "password123")

	status, env := doRequest(t, srv, http.MethodGet, "/tasks?status=bogus", auth.AccessToken, nil)
	if status != http.StatusBadRequest || env.Code != "VALIDATION_ERROR" {
		t.Fatalf("bad status filter: expected 400 VALIDATION_ERROR, got %d %s", status, env.Code)
	}
	if len(env.Details["status"]) == 0 {
		t.Fatalf("expected status details, got %v", env.Details)
	}

	status, env = doRequest(t, srv, http.MethodGet, "/tasks?sortBy=color", auth.AccessToken, nil)
	if status != http.StatusBadRequest || env.Code != "VALIDATION_ERROR" {
		t.Fatalf("bad sort field: expected 400 VALIDATION_ERROR, got %d %s", status, env.Code)
	}
}

func TestTaskList_FilterAndSort(t *testing.T) {
	srv := newTestServer(t)
	auth := signup(t, srv, "heidi@example.com", "password123")
	tok := auth.AccessToken

	createTask(t, srv, tok, map[string]any{"title": "chores", "priority": "low"})
	createTask(t, srv, tok, map[string]any{"title": "taxes", "priority": "high"})
	createTask(t, srv, tok, map[string]any{"title": "email", "priority": "medium"})

	status, env := doRequest(t, srv, http.MethodGet, "/tasks?sortBy=priority&order=desc", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d, code %s", status, env.Code)
	}
	var list listData
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list data: %v", err)
	}
	if len(list.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(list.Tasks))
	}
	if list.Tasks[0].Title != "taxes" || list.Tasks[2].Title != "chores" {
		t.Fatalf("priority desc: got %s, %s, %s", list.Tasks[0].Title, list.Tasks[1].Title, list.Tasks[2].Title)
	}

	// Comma-separated priorities narrow the listing.
	status, env = doRequest(t, srv, http.MethodGet, "/tasks?priority=high,medium", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("filtered list: status %d", status)
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list data: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("expected 2 tasks, got %d", list.Total)
	}
}

func TestCompletedEndpoint(t *testing.T) {
	srv := newTestServer(t)
	auth := signup(t, srv, "ivan@example.com", "password123")
	tok := auth.AccessToken

	created := createTask(t, srv, tok, map[string]any{"title": "wrap up", "priority": "low"})
	if status, env := doRequest(t, srv, http.MethodPatch, "/tasks/"+created.Task.ID+"/complete", tok, nil); status != http.StatusOK {
		t.Fatalf("complete: status %d, code %s", status, env.Code)
	}

	status, env := doRequest(t, srv, http.MethodGet, "/tasks/completed", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("completed: status %d, code %s", status, env.Code)
	}
	var list listData
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode completed data: %v", err)
	}
	if list.Total != 1 || list.Tasks[0].Status != "completed" {
		t.Fatalf("expected one completed task, got total=%d", list.Total)
	}

	// Limit must be a positive integer.
	status, env = doRequest(t, srv, http.MethodGet, "/tasks/completed?limit=zero", tok, nil)
	if status != http.StatusBadRequest || env.Code != "VALIDATION_ERROR" {
		t.Fatalf("bad limit: expected 400 VALIDATION_ERROR, got %d %s", status, env.Code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	codec := token.NewCodec(
		testAccessSecret, testRefreshSecret,
		time.Hour, 7*24*time.Hour, 30*24*time.Hour,
	)
	auth := service.NewAuthService(db.Users(), db.Sessions(), codec, 4)
	tasks := service.NewTaskService(db.Tasks())
	// Two attempts, essentially no refill within the test.
	limiter := service.NewLoginLimiter(0.001, 2)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, tasks, limiter)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	body := map[string]string{"email": "nobody@example.com", "password": "password123"}
	for i := 0; i < 2; i++ {
		status, _ := doRequest(t, srv, http.MethodPost, "/auth/login", "", body)
		if status != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, status)
		}
	}

	status, env := doRequest(t, srv, http.MethodPost, "/auth/login", "", body)
	if status != http.StatusTooManyRequests || env.Code != "RATE_LIMITED" {
		t.Fatalf("expected 429 RATE_LIMITED, got %d %s", status, env.Code)
	}
}

func TestUpdate_NoFields(t *testing.T) {
	srv := newTestServer(t)
	auth := signup(t, srv, "judy@example.com", "password123")
	created := createTask(t, srv, auth.AccessToken, map[string]any{"title": "stay put", "priority": "low"})

	status, env := doRequest(t, srv, http.MethodPut, "/tasks/"+created.Task.ID, auth.AccessToken, map[string]any{})
	if status != http.StatusBadRequest || env.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected 400 VALIDATION_ERROR, got %d %s", status, env.Code)
	}
	if len(env.Details["general"]) == 0 {
		t.Fatalf("expected a general detail, got %v", env.Details)
	}
}

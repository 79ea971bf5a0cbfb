package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"quiz-delivery-service/internal/app"
	"quiz-delivery-service/internal/infra/memory"
)

const testSetupKey = "setup-key"

type testEnv struct {
	t      *testing.T
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	bridge := app.NewIdentityBridge(store, time.Second, nil)
	authSvc := app.NewAuthService(store, bridge, memory.NewAttemptLimiter(10, time.Minute), memory.NewSessionStore(), app.AuthOptions{
		Secret:     "test-secret",
		SessionTTL: time.Hour,
	})
	router := NewRouter(RouterDeps{
		Auth:     authSvc,
		Admin:    app.NewAdminService(store, nil),
		Users:    app.NewUserService(store, 9.99, nil),
		Setup:    app.NewSetupService(store, store, store, app.SetupOptions{APIKey: testSetupKey}),
		SetupKey: testSetupKey,
	})
	return &testEnv{t: t, router: router}
}

type envelope struct {
	Success       bool            `json:"success"`
	Data          json.RawMessage `json:"data"`
	Error         string          `json:"error"`
	SetupRequired bool            `json:"setup_required"`
	Details       json.RawMessage `json:"details"`
}

func (e *testEnv) do(method, path, token string, body any, headers ...string) (int, envelope) {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

type sessionView struct {
	Token   string `json:"token"`
	Account struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"account"`
}

func (e *testEnv) signUp(email string) sessionView {
	e.t.Helper()
	status, env := e.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": email, "password": "secret123"})
	if status != http.StatusCreated {
		e.t.Fatalf("signup %s: status %d %s", email, status, env.Error)
	}
	return decode[sessionView](e.t, env.Data)
}

func (e *testEnv) signIn(email string) sessionView {
	e.t.Helper()
	status, env := e.do(http.MethodPost, "/auth/signin", "", map[string]string{"email": email, "password": "secret123"})
	if status != http.StatusOK {
		e.t.Fatalf("signin %s: status %d %s", email, status, env.Error)
	}
	return decode[sessionView](e.t, env.Data)
}

// admin signs up an account, promotes it through /setup and signs in again
// so the session carries the admin role.
func (e *testEnv) admin(email string) sessionView {
	e.t.Helper()
	s := e.signUp(email)
	status, env := e.do(http.MethodPost, "/setup/admins", "", map[string]string{"user_id": s.Account.ID}, SetupKeyHeader, testSetupKey)
	if status != http.StatusOK {
		e.t.Fatalf("promote: status %d %s", status, env.Error)
	}
	return e.signIn(email)
}

type idView struct {
	ID string `json:"id"`
}

func TestQuizDeliveryFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin("admin@example.com")
	if admin.Account.Role != "admin" {
		t.Fatalf("expected admin session, got role %q", admin.Account.Role)
	}
	user := env.signUp("taker@example.com")

	status, res := env.do(http.MethodPost, "/admin/quizzes", admin.Token, map[string]string{"title": "JS Basics"})
	if status != http.StatusCreated {
		t.Fatalf("create quiz: %d %s", status, res.Error)
	}
	quiz := decode[idView](t, res.Data)

	status, res = env.do(http.MethodPost, "/admin/quizzes/"+quiz.ID+"/questions", admin.Token, map[string]any{
		"prompt": "2+2?", "type": "multiple_choice", "options": []string{"3", "4"}, "correct_answer": "4",
	})
	if status != http.StatusCreated {
		t.Fatalf("add question: %d %s", status, res.Error)
	}
	q1 := decode[idView](t, res.Data)
	status, res = env.do(http.MethodPost, "/admin/quizzes/"+quiz.ID+"/questions", admin.Token, map[string]any{
		"prompt": "Keyword for constants?", "type": "text", "correct_answer": "const",
	})
	if status != http.StatusCreated {
		t.Fatalf("add question: %d %s", status, res.Error)
	}
	q2 := decode[idView](t, res.Data)

	if status, _ := env.do(http.MethodPost, "/me/quizzes/"+quiz.ID+"/payments", user.Token, nil); status != http.StatusCreated {
		t.Fatalf("pay: %d", status)
	}

	status, res = env.do(http.MethodGet, "/admin/pending", admin.Token, nil)
	pending := decode[[]map[string]any](t, res.Data)
	if status != http.StatusOK || len(pending) != 1 {
		t.Fatalf("expected one pending entry, got %d %v", status, pending)
	}

	status, res = env.do(http.MethodPost, "/admin/pending/assign", admin.Token, map[string]string{"user_id": user.Account.ID, "quiz_id": quiz.ID})
	if status != http.StatusOK || decode[assignedResponse](t, res.Data).Inserted != 1 {
		t.Fatalf("assign pending: %d %s", status, res.Error)
	}
	_, res = env.do(http.MethodGet, "/admin/pending", admin.Token, nil)
	if left := decode[[]map[string]any](t, res.Data); len(left) != 0 {
		t.Fatalf("expected pending list to be empty, got %v", left)
	}

	status, res = env.do(http.MethodGet, "/me/quizzes/"+quiz.ID, user.Token, nil)
	detail := decode[struct {
		State     string           `json:"state"`
		Questions []map[string]any `json:"questions"`
	}](t, res.Data)
	if status != http.StatusOK || detail.State != "assigned" || len(detail.Questions) != 2 {
		t.Fatalf("unexpected detail %d %+v", status, detail)
	}
	if _, leaked := detail.Questions[0]["correct_answer"]; leaked {
		t.Fatalf("correct answer must not be sent to takers")
	}

	status, res = env.do(http.MethodPost, "/me/quizzes/"+quiz.ID+"/submissions", user.Token, map[string]any{
		"answers": map[string]string{q1.ID: "4"},
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unanswered, got %d", status)
	}
	if d := decode[unansweredDetails](t, res.Details); d.Count != 1 || d.QuestionIDs[0] != q2.ID {
		t.Fatalf("unexpected details %+v", d)
	}

	status, res = env.do(http.MethodPost, "/me/quizzes/"+quiz.ID+"/submissions", user.Token, map[string]any{
		"answers": map[string]string{q1.ID: "4", q2.ID: "let"},
	})
	if status != http.StatusCreated {
		t.Fatalf("submit: %d %s", status, res.Error)
	}
	if score := decode[struct {
		Score float64 `json:"score"`
	}](t, res.Data).Score; score != 50 {
		t.Fatalf("expected score 50, got %v", score)
	}

	status, _ = env.do(http.MethodPost, "/me/quizzes/"+quiz.ID+"/submissions", user.Token, map[string]any{
		"answers": map[string]string{q1.ID: "4", q2.ID: "const"},
	})
	if status != http.StatusConflict {
		t.Fatalf("expected second submission to conflict, got %d", status)
	}

	_, res = env.do(http.MethodGet, "/admin/quizzes/"+quiz.ID+"/results", admin.Token, nil)
	results := decode[[]struct {
		UserEmail string `json:"user_email"`
	}](t, res.Data)
	if len(results) != 1 || results[0].UserEmail != "taker@example.com" {
		t.Fatalf("unexpected quiz results %+v", results)
	}

	if status, res := env.do(http.MethodDelete, "/admin/quizzes/"+quiz.ID, admin.Token, nil); status != http.StatusNoContent {
		t.Fatalf("delete quiz: %d %s", status, res.Error)
	}
	if status, _ := env.do(http.MethodGet, "/me/quizzes/"+quiz.ID, user.Token, nil); status != http.StatusNotFound {
		t.Fatalf("expected deleted quiz to be gone, got %d", status)
	}
}

func TestAuthorization(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp("plain@example.com")

	if status, _ := env.do(http.MethodGet, "/admin/quizzes", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	if status, _ := env.do(http.MethodGet, "/admin/quizzes", user.Token, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", status)
	}
	if status, _ := env.do(http.MethodGet, "/setup/diagnostics", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected setup key to be required, got %d", status)
	}
	if status, _ := env.do(http.MethodGet, "/setup/diagnostics", "", nil, SetupKeyHeader, testSetupKey); status != http.StatusOK {
		t.Fatalf("expected diagnostics with key, got %d", status)
	}
}

func TestSignOutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp("leaving@example.com")

	if status, _ := env.do(http.MethodGet, "/auth/me", user.Token, nil); status != http.StatusOK {
		t.Fatalf("me: %d", status)
	}
	if status, _ := env.do(http.MethodPost, "/auth/signout", user.Token, nil); status != http.StatusNoContent {
		t.Fatalf("signout: %d", status)
	}
	if status, _ := env.do(http.MethodGet, "/auth/me", user.Token, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", status)
	}
}

func TestSignInErrors(t *testing.T) {
	env := newTestEnv(t)
	env.signUp("known@example.com")

	status, res := env.do(http.MethodPost, "/auth/signin", "", map[string]string{"email": "known@example.com", "password": "wrong-pass"})
	if status != http.StatusUnauthorized || res.Success {
		t.Fatalf("expected 401, got %d", status)
	}
	status, _ = env.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": "known@example.com", "password": "secret123"})
	if status != http.StatusConflict {
		t.Fatalf("expected email taken conflict, got %d", status)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz %d %q", rec.Code, rec.Body.String())
	}
}

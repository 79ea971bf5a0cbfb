package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func TestWebSocketAttemptFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin("ws-admin@example.com")
	user := env.signUp("ws-taker@example.com")

	_, res := env.do(http.MethodPost, "/admin/quizzes", admin.Token, map[string]string{"title": "JS Basics"})
	quiz := decode[idView](t, res.Data)
	_, res = env.do(http.MethodPost, "/admin/quizzes/"+quiz.ID+"/questions", admin.Token, map[string]any{
		"prompt": "2+2?", "type": "multiple_choice", "options": []string{"3", "4"}, "correct_answer": "4",
	})
	q1 := decode[idView](t, res.Data)
	_, res = env.do(http.MethodPost, "/admin/quizzes/"+quiz.ID+"/questions", admin.Token, map[string]any{
		"prompt": "Keyword for constants?", "type": "text", "correct_answer": "const",
	})
	q2 := decode[idView](t, res.Data)
	env.do(http.MethodPost, "/admin/quizzes/"+quiz.ID+"/assignments", admin.Token, map[string]any{"user_ids": []string{user.Account.ID}})

	server := httptest.NewServer(env.router)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/quizzes/" + quiz.ID + "?token=" + user.Token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	typ, payload := readNext(conn, t)
	if typ != "attempt" || payload["total"].(float64) != 2 {
		t.Fatalf("expected initial attempt snapshot, got %s %v", typ, payload)
	}

	send(t, conn, "answer", map[string]string{"question_id": q1.ID, "answer": "4"})
	if typ, payload = readNext(conn, t); typ != "attempt" || payload["answered"].(float64) != 1 {
		t.Fatalf("expected one answer recorded, got %s %v", typ, payload)
	}

	send(t, conn, "submit", nil)
	if typ, payload = readNext(conn, t); typ != "error" {
		t.Fatalf("expected unanswered error, got %s", typ)
	}
	if ids, _ := payload["question_ids"].([]any); len(ids) != 1 || ids[0] != q2.ID {
		t.Fatalf("expected missing %s, got %v", q2.ID, payload)
	}

	send(t, conn, "next", nil)
	if typ, payload = readNext(conn, t); typ != "attempt" || payload["index"].(float64) != 1 {
		t.Fatalf("expected cursor on second question, got %v", payload)
	}

	send(t, conn, "answer", map[string]string{"question_id": q2.ID, "answer": "const"})
	readNext(conn, t)

	send(t, conn, "submit", nil)
	typ, payload = readNext(conn, t)
	if typ != "submitted" || payload["score"].(float64) != 100 {
		t.Fatalf("expected perfect submission, got %s %v", typ, payload)
	}
}

func TestWebSocketRequiresAssignment(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin("ws-admin2@example.com")
	user := env.signUp("ws-outsider@example.com")
	_, res := env.do(http.MethodPost, "/admin/quizzes", admin.Token, map[string]string{"title": "Locked"})
	quiz := decode[idView](t, res.Data)

	server := httptest.NewServer(env.router)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/quizzes/" + quiz.ID + "?token=" + user.Token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if typ, _ := readNext(conn, t); typ != "error" {
		t.Fatalf("expected error for unassigned quiz, got %s", typ)
	}

	if _, resp, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws/quizzes/"+quiz.ID, nil); err == nil {
		t.Fatalf("expected dial without token to fail")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on upgrade without token, got %v", resp)
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg.Type, msg.Payload
}

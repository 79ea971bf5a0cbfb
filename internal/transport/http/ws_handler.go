package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-delivery-service/internal/app"
	"quiz-delivery-service/internal/domain"
)

// WSHandler runs one quiz attempt over a WebSocket. The attempt cursor and
// answers live for the lifetime of the connection; only the final
// submission is stored.
type WSHandler struct {
	users    *app.UserService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSHandler(users *app.UserService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		users:  users,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type errorPayload struct {
	Message     string   `json:"message"`
	QuestionIDs []string `json:"question_ids,omitempty"`
}

func errorMessage(err error) outboundMessage {
	payload := errorPayload{Message: err.Error()}
	var unanswered *domain.UnansweredError
	if errors.As(err, &unanswered) {
		payload.QuestionIDs = unanswered.QuestionIDs
	}
	return outboundMessage{Type: "error", Payload: payload}
}

// ServeWS handles GET /ws/quizzes/:id.
func (h *WSHandler) ServeWS(c *gin.Context) {
	ctx := c.Request.Context()
	authCtx := authFrom(c)
	quizID := c.Param("id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	attempt, err := h.users.StartAttempt(ctx, authCtx, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	// Only this goroutine writes to conn.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write failed", zap.Error(err))
				return
			}
		}
	}()

	send <- outboundMessage{Type: "attempt", Payload: attempt.Snapshot()}

	submitted := false
	for !submitted {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if err := attempt.Answer(payload.QuestionID, payload.Answer); err != nil {
				send <- errorMessage(err)
				continue
			}
		case "next":
			attempt.Next()
		case "previous":
			attempt.Previous()
		case "jump":
			var payload jumpPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid jump payload"}}
				continue
			}
			if err := attempt.Jump(payload.Index); err != nil {
				send <- errorMessage(err)
				continue
			}
		case "submit":
			result, err := h.users.Submit(ctx, authCtx, quizID, attempt.Answers())
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage{Type: "submitted", Payload: result}
			submitted = true
			continue
		default:
			send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
			continue
		}
		send <- outboundMessage{Type: "attempt", Payload: attempt.Snapshot()}
	}

	close(send)
	<-writerDone
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"quiz-delivery-service/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("list quizzes: %w", domain.ErrSchemaNotReady), http.StatusServiceUnavailable},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
		{domain.Invalid("title is required"), http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrNotAssigned, http.StatusForbidden},
		{domain.ErrAlreadyPaid, http.StatusConflict},
		{&domain.UnansweredError{QuestionIDs: []string{"q1"}}, http.StatusUnprocessableEntity},
		{&domain.CascadeError{Step: "results", Err: errors.New("boom")}, http.StatusInternalServerError},
		{errors.New("something else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestWriteErrorEnvelopes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	writeError(c, fmt.Errorf("get quiz: %w", domain.ErrSchemaNotReady))

	var body Body
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if rec.Code != http.StatusServiceUnavailable || !body.SetupRequired || body.Error != setupMessage {
		t.Fatalf("unexpected setup envelope %d %+v", rec.Code, body)
	}

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	writeError(c, &domain.CascadeError{Step: "payments", Err: errors.New("timeout")})
	var cascade struct {
		Error   string         `json:"error"`
		Details cascadeDetails `json:"details"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &cascade)
	if cascade.Details.Step != "payments" {
		t.Fatalf("expected failed step in details, got %+v", cascade)
	}
}

func TestRecoveryPointsAtSetup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(recovery(nopLogger()))
	router.GET("/db", func(*gin.Context) { panic(`relation "quizzes" does not exist`) })
	router.GET("/other", func(*gin.Context) { panic("nil map") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/db", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

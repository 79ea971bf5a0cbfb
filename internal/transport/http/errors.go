package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-delivery-service/internal/domain"
)

const setupMessage = "database schema is not initialized; run `quiz-service migrate` or POST /setup/schema"

type unansweredDetails struct {
	QuestionIDs []string `json:"question_ids"`
	Count       int      `json:"count"`
}

type cascadeDetails struct {
	Step string `json:"step"`
}

// statusFor maps a workflow error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSchemaNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUnanswered):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotAssigned):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrAlreadyAssigned),
		errors.Is(err, domain.ErrAlreadyPaid),
		errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrQuizEmpty):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err in the envelope and aborts the chain.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)
	body := Body{Error: err.Error()}

	var unanswered *domain.UnansweredError
	var cascade *domain.CascadeError
	switch {
	case status == http.StatusServiceUnavailable:
		body.Error = setupMessage
		body.SetupRequired = true
	case errors.As(err, &unanswered):
		body.Details = unansweredDetails{QuestionIDs: unanswered.QuestionIDs, Count: len(unanswered.QuestionIDs)}
	case errors.As(err, &cascade):
		body.Details = cascadeDetails{Step: cascade.Step}
	}
	c.AbortWithStatusJSON(status, body)
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate key")
	// ErrSchemaNotReady indicates an expected table is missing and setup must run.
	ErrSchemaNotReady = errors.New("database schema is not initialized, run setup")
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrTooManyAttempts is returned when sign-in attempts exceed the limit.
	ErrTooManyAttempts = errors.New("too many attempts, please try again later")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnauthenticated is returned for a missing, invalid, expired or revoked session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the session lacks the required role.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotAssigned is returned when a user acts on a quiz not assigned to them.
	ErrNotAssigned = errors.New("quiz is not assigned to this user")
	// ErrAlreadyAssigned is returned when paying for an already assigned quiz.
	ErrAlreadyAssigned = errors.New("quiz is already assigned to this user")
	// ErrAlreadyPaid is returned when paying twice while awaiting assignment.
	ErrAlreadyPaid = errors.New("quiz is already paid and awaiting assignment")
	// ErrAlreadyCompleted is returned when submitting a quiz that has a result.
	ErrAlreadyCompleted = errors.New("quiz is already completed")
	// ErrQuizEmpty is returned when submitting a quiz without questions.
	ErrQuizEmpty = errors.New("quiz has no questions")
	// ErrUnanswered is matched by UnansweredError.
	ErrUnanswered = errors.New("unanswered questions")
)

// Invalid builds an ErrInvalidInput with a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// UnansweredError lists the questions lacking an answer at submission.
type UnansweredError struct {
	QuestionIDs []string
}

func (e *UnansweredError) Error() string {
	return fmt.Sprintf("please answer all questions before submitting, %d unanswered", len(e.QuestionIDs))
}

func (e *UnansweredError) Is(target error) bool {
	return target == ErrUnanswered
}

// CascadeError names the step of a quiz deletion that failed.
type CascadeError struct {
	Step string
	Err  error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("delete quiz: %s: %v", e.Step, e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

var setupKeywords = []string{"relation", "table", "database"}

// LooksLikeSetupProblem inspects an unanticipated failure message for
// database keywords that usually mean the schema was never created.
func LooksLikeSetupProblem(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range setupKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

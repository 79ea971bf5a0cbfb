package app

import (
	"context"
	"time"

	"quiz-delivery-service/internal/domain"
)

// AccountRepository stores application accounts.
type AccountRepository interface {
	GetAccount(ctx context.Context, id string) (domain.Account, error)
	CreateAccount(ctx context.Context, account domain.Account) error
	UpdateAccountRole(ctx context.Context, id string, role domain.Role) error
	ListAccountsByRole(ctx context.Context, role domain.Role) ([]domain.Account, error)
}

// IdentityRepository stores credentials for the identity provider.
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, identity domain.Identity) error
	GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
}

// QuizRepository stores quizzes.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, id string) (domain.Quiz, error)
	// ListQuizzes returns all quizzes, newest first.
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error
}

// QuestionRepository stores questions.
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, question domain.Question) error
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	// ListQuestions returns a quiz's questions ordered by id.
	ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
	DeleteQuestionsByQuiz(ctx context.Context, quizID string) error
}

// AssignmentRepository stores assignments. CreateAssignment returns
// domain.ErrDuplicate when the user/quiz pair already exists.
type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, assignment domain.Assignment) error
	DeleteAssignment(ctx context.Context, id string) error
	ListAssignments(ctx context.Context) ([]domain.Assignment, error)
	ListAssignmentsByQuiz(ctx context.Context, quizID string) ([]domain.Assignment, error)
	ListAssignmentsByUser(ctx context.Context, userID string) ([]domain.Assignment, error)
	DeleteAssignmentsByQuiz(ctx context.Context, quizID string) error
}

// ResultRepository stores quiz results.
type ResultRepository interface {
	CreateResult(ctx context.Context, result domain.Result) error
	// ListResultsByUser returns results newest first.
	ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error)
	ListResultsByQuiz(ctx context.Context, quizID string) ([]domain.Result, error)
	DeleteResultsByQuiz(ctx context.Context, quizID string) error
}

// PaymentRepository stores payments.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment domain.Payment) error
	ListPaymentsByUser(ctx context.Context, userID string) ([]domain.Payment, error)
	ListPaymentsByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error)
	DeletePaymentsByQuiz(ctx context.Context, quizID string) error
}

// Store bundles every table the workflows touch.
type Store interface {
	AccountRepository
	IdentityRepository
	QuizRepository
	QuestionRepository
	AssignmentRepository
	ResultRepository
	PaymentRepository
}

// QuizCascadeDeleter is implemented by stores that can remove a quiz and its
// dependent rows atomically.
type QuizCascadeDeleter interface {
	DeleteQuizCascade(ctx context.Context, quizID string) error
}

// PendingReconciler is implemented by stores that can compute paid but
// unassigned pairs with a server-side join.
type PendingReconciler interface {
	ListPendingAssignments(ctx context.Context) ([]domain.PendingAssignment, error)
}

// AttemptLimiter counts sign-in attempts per key.
type AttemptLimiter interface {
	// Allow records an attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SessionStore tracks revoked sessions until they would have expired anyway.
type SessionStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

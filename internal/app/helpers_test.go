package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-delivery-service/internal/app"
	"quiz-delivery-service/internal/domain"
	"quiz-delivery-service/internal/infra/memory"
)

var adminAuth = app.AuthContext{Account: domain.Account{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}}

func userAuth(id string) app.AuthContext {
	return app.AuthContext{Account: domain.Account{ID: id, Email: id + "@example.com", Role: domain.RoleUser}}
}

// clock returns increasing timestamps so created_at ordering is stable.
func clock() func() time.Time {
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

type fixture struct {
	store *memory.Store
	admin *app.AdminService
	users *app.UserService
}

func newFixture(t *testing.T, userIDs ...string) *fixture {
	t.Helper()
	store := memory.NewStore()
	now := clock()
	ctx := context.Background()
	if err := store.CreateAccount(ctx, adminAuth.Account); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	for _, id := range userIDs {
		if err := store.CreateAccount(ctx, userAuth(id).Account); err != nil {
			t.Fatalf("create account %s: %v", id, err)
		}
	}
	return &fixture{
		store: store,
		admin: app.NewAdminServiceWithClock(store, now, nil),
		users: app.NewUserServiceWithClock(store, 9.99, now, nil),
	}
}

// jsBasics creates the two-question quiz used across tests.
func (f *fixture) jsBasics(t *testing.T) (domain.Quiz, domain.Question, domain.Question) {
	t.Helper()
	ctx := context.Background()
	quiz, err := f.admin.CreateQuiz(ctx, adminAuth, "JS Basics", "")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	q1, err := f.admin.AddQuestion(ctx, adminAuth, quiz.ID, domain.Question{
		Prompt: "2+2?", Type: domain.QuestionMultipleChoice, Options: []string{"3", "4"}, CorrectAnswer: "4",
	})
	if err != nil {
		t.Fatalf("add q1: %v", err)
	}
	q2, err := f.admin.AddQuestion(ctx, adminAuth, quiz.ID, domain.Question{
		Prompt: "Keyword for constants?", Type: domain.QuestionText, CorrectAnswer: "const",
	})
	if err != nil {
		t.Fatalf("add q2: %v", err)
	}
	return quiz, q1, q2
}

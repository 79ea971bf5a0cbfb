package app_test

import (
	"errors"
	"testing"

	"quiz-delivery-service/internal/app"
	"quiz-delivery-service/internal/domain"
)

func TestAttemptNavigation(t *testing.T) {
	attempt := app.NewAttempt("quiz-1", []domain.Question{
		{ID: "q1", Prompt: "one", Type: domain.QuestionText, CorrectAnswer: "a"},
		{ID: "q2", Prompt: "two", Type: domain.QuestionText, CorrectAnswer: "b"},
		{ID: "q3", Prompt: "three", Type: domain.QuestionText, CorrectAnswer: "c"},
	})

	attempt.Previous()
	if snap := attempt.Snapshot(); snap.Index != 0 || snap.Current.ID != "q1" {
		t.Fatalf("previous at start should stay put, got %+v", snap)
	}
	attempt.Next()
	attempt.Next()
	attempt.Next()
	if snap := attempt.Snapshot(); snap.Index != 2 {
		t.Fatalf("next at end should stay put, got %d", snap.Index)
	}
	if err := attempt.Jump(1); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if err := attempt.Jump(3); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if snap := attempt.Snapshot(); snap.Current.ID != "q2" || snap.Total != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestAttemptAnswers(t *testing.T) {
	attempt := app.NewAttempt("quiz-1", []domain.Question{
		{ID: "q1", Type: domain.QuestionText},
		{ID: "q2", Type: domain.QuestionText},
	})

	if err := attempt.Answer("q1", "yes"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := attempt.Answer("q9", "x"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected unknown question rejected, got %v", err)
	}
	if missing := attempt.Unanswered(); len(missing) != 1 || missing[0] != "q2" {
		t.Fatalf("unexpected unanswered %v", missing)
	}

	answers := attempt.Answers()
	answers["q2"] = "tampered"
	if attempt.Snapshot().Answered != 1 {
		t.Fatalf("answers copy must not alias attempt state")
	}

	_ = attempt.Answer("q1", "")
	if attempt.Snapshot().Answered != 0 {
		t.Fatalf("empty answer should clear")
	}
}

package domain

import (
	"net/mail"
	"slices"
	"strings"
)

// MinPasswordLength is enforced at sign-up.
const MinPasswordLength = 6

// NormalizeQuiz trims the title and description and rejects an empty title.
func NormalizeQuiz(q Quiz) (Quiz, error) {
	q.Title = strings.TrimSpace(q.Title)
	q.Description = strings.TrimSpace(q.Description)
	if q.Title == "" {
		return q, Invalid("quiz title is required")
	}
	return q, nil
}

// NormalizeQuestion trims the prompt, drops blank options and checks that a
// multiple choice answer is one of the options. Options and answers are
// compared by value. Only leading and trailing whitespace of options is cut,
// the correct answer is kept exactly as given.
func NormalizeQuestion(q Question) (Question, error) {
	q.Prompt = strings.TrimSpace(q.Prompt)
	if q.Prompt == "" {
		return q, Invalid("question prompt is required")
	}
	if !q.Type.Valid() {
		return q, Invalid("unknown question type %q", q.Type)
	}

	switch q.Type {
	case QuestionMultipleChoice:
		options := make([]string, 0, len(q.Options))
		for _, opt := range q.Options {
			if t := strings.TrimSpace(opt); t != "" {
				options = append(options, t)
			}
		}
		if len(options) < 2 {
			return q, Invalid("multiple choice questions need at least two options")
		}
		if !slices.Contains(options, q.CorrectAnswer) {
			return q, Invalid("correct answer must match one of the options")
		}
		q.Options = options
	case QuestionText:
		q.Options = nil
		if q.CorrectAnswer == "" {
			return q, Invalid("correct answer is required")
		}
	}
	return q, nil
}

// NormalizeEmail lower-cases and validates an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", Invalid("invalid email address")
	}
	return email, nil
}

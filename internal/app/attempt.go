package app

import (
	"quiz-delivery-service/internal/domain"
)

// Attempt is an in-progress run through a quiz: questions in creation order,
// a cursor and the answers given so far. It is owned by a single connection
// and is not safe for concurrent use.
type Attempt struct {
	quizID    string
	questions []domain.Question
	answers   map[string]string
	cursor    int
}

// AttemptSnapshot is what the taker sees at a point in time.
type AttemptSnapshot struct {
	QuizID   string               `json:"quiz_id"`
	Index    int                  `json:"index"`
	Total    int                  `json:"total"`
	Answered int                  `json:"answered"`
	Current  *domain.QuestionView `json:"current,omitempty"`
	Answers  map[string]string    `json:"answers"`
}

func NewAttempt(quizID string, questions []domain.Question) *Attempt {
	return &Attempt{
		quizID:    quizID,
		questions: questions,
		answers:   make(map[string]string),
	}
}

// Next moves forward unless at the last question.
func (a *Attempt) Next() {
	if a.cursor < len(a.questions)-1 {
		a.cursor++
	}
}

// Previous moves back unless at the first question.
func (a *Attempt) Previous() {
	if a.cursor > 0 {
		a.cursor--
	}
}

// Jump moves to index i.
func (a *Attempt) Jump(i int) error {
	if i < 0 || i >= len(a.questions) {
		return domain.Invalid("question index %d out of range", i)
	}
	a.cursor = i
	return nil
}

// Answer records an answer for a question of this quiz. An empty answer
// clears the previous one.
func (a *Attempt) Answer(questionID, answer string) error {
	for _, q := range a.questions {
		if q.ID != questionID {
			continue
		}
		if answer == "" {
			delete(a.answers, questionID)
		} else {
			a.answers[questionID] = answer
		}
		return nil
	}
	return domain.Invalid("question %s is not part of this quiz", questionID)
}

// Unanswered lists question ids still lacking an answer.
func (a *Attempt) Unanswered() []string {
	return domain.Unanswered(a.questions, a.answers)
}

// Answers returns a copy of the captured answers.
func (a *Attempt) Answers() map[string]string {
	out := make(map[string]string, len(a.answers))
	for k, v := range a.answers {
		out[k] = v
	}
	return out
}

// QuizID is the quiz being attempted.
func (a *Attempt) QuizID() string {
	return a.quizID
}

// Snapshot describes the cursor position and progress.
func (a *Attempt) Snapshot() AttemptSnapshot {
	snap := AttemptSnapshot{
		QuizID:   a.quizID,
		Index:    a.cursor,
		Total:    len(a.questions),
		Answered: len(a.answers),
		Answers:  a.Answers(),
	}
	if len(a.questions) > 0 {
		view := a.questions[a.cursor].View()
		snap.Current = &view
	}
	return snap
}

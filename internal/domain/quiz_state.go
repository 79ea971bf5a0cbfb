package domain

// QuizState is where a user stands with one quiz.
type QuizState string

const (
	StateLocked             QuizState = "locked"
	StateAwaitingAssignment QuizState = "awaiting_assignment"
	StateAssigned           QuizState = "assigned"
	StateCompleted          QuizState = "completed"
)

// DeriveState maps the rows present for a user/quiz pair to a state.
// A result wins over everything: removing the assignment afterwards does not
// reopen the quiz.
func DeriveState(assigned, paid, completed bool) QuizState {
	switch {
	case completed:
		return StateCompleted
	case assigned:
		return StateAssigned
	case paid:
		return StateAwaitingAssignment
	default:
		return StateLocked
	}
}

// Score counts exact, case-sensitive matches against each question's correct
// answer and returns them as a percentage of the question count.
func Score(questions []Question, answers map[string]string) float64 {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for _, q := range questions {
		if ans, ok := answers[q.ID]; ok && ans == q.CorrectAnswer {
			correct++
		}
	}
	return float64(correct) / float64(len(questions)) * 100
}

// Unanswered returns the ids of questions without a non-empty answer, in
// question order.
func Unanswered(questions []Question, answers map[string]string) []string {
	var missing []string
	for _, q := range questions {
		if answers[q.ID] == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

package domain

import "time"

// Role is the authorization flag carried by an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account is the application-side record for an authenticated identity.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the account carries the admin role.
func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Identity is a credential record owned by the identity provider.
// Its ID doubles as the Account ID.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Quiz is a titled collection of questions.
type Quiz struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuestionType selects how a question is answered.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionText           QuestionType = "text"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	return t == QuestionMultipleChoice || t == QuestionText
}

// Question belongs to a quiz. For multiple choice questions CorrectAnswer
// holds a copy of one option's text, not its index.
type Question struct {
	ID            string       `json:"id"`
	QuizID        string       `json:"quiz_id"`
	Prompt        string       `json:"prompt"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer"`
}

// QuestionView is a question as shown to a quiz taker.
type QuestionView struct {
	ID      string       `json:"id"`
	Prompt  string       `json:"prompt"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options"`
}

// View strips the correct answer.
func (q Question) View() QuestionView {
	return QuestionView{ID: q.ID, Prompt: q.Prompt, Type: q.Type, Options: q.Options}
}

// Assignment grants an account access to a quiz.
type Assignment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	QuizID     string    `json:"quiz_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Result is a completed quiz submission.
type Result struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	QuizID      string            `json:"quiz_id"`
	Answers     map[string]string `json:"answers"`
	Score       float64           `json:"score"`
	CompletedAt time.Time         `json:"completed_at"`
}

// PaymentStatus tracks a payment through checkout.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment records a (simulated) quiz purchase.
type Payment struct {
	ID     string        `json:"id"`
	UserID string        `json:"user_id"`
	QuizID string        `json:"quiz_id"`
	Amount float64       `json:"amount"`
	Status PaymentStatus `json:"status"`
	PaidAt *time.Time    `json:"paid_at"`
}

// Pair identifies a user and quiz combination.
type Pair struct {
	UserID string `json:"user_id"`
	QuizID string `json:"quiz_id"`
}

// Key returns a map key for the pair.
func (p Pair) Key() string {
	return p.UserID + "_" + p.QuizID
}

// PendingAssignment is a completed payment with no matching assignment.
type PendingAssignment struct {
	PaymentID string    `json:"payment_id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	QuizID    string    `json:"quiz_id"`
	QuizTitle string    `json:"quiz_title"`
	PaidAt    time.Time `json:"paid_at"`
}

// Pair returns the user/quiz pair of the pending entry.
func (p PendingAssignment) Pair() Pair {
	return Pair{UserID: p.UserID, QuizID: p.QuizID}
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"quiz-delivery-service/internal/app"
	"quiz-delivery-service/internal/domain"
)

// Store is an in-memory implementation of app.Store. It enforces the same
// uniqueness and foreign key rules as the SQL schema but, like a store
// without transactions, runs a quiz deletion as independent steps.
type Store struct {
	mu          sync.RWMutex
	accounts    map[string]domain.Account
	identities  map[string]domain.Identity
	quizzes     map[string]domain.Quiz
	questions   map[string]domain.Question
	assignments map[string]domain.Assignment
	results     map[string]domain.Result
	payments    map[string]domain.Payment
}

var _ app.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		accounts:    make(map[string]domain.Account),
		identities:  make(map[string]domain.Identity),
		quizzes:     make(map[string]domain.Quiz),
		questions:   make(map[string]domain.Question),
		assignments: make(map[string]domain.Assignment),
		results:     make(map[string]domain.Result),
		payments:    make(map[string]domain.Payment),
	}
}

// Accounts

func (s *Store) GetAccount(_ context.Context, id string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (s *Store) CreateAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return domain.ErrDuplicate
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *Store) UpdateAccountRole(_ context.Context, id string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	account.Role = role
	s.accounts[id] = account
	return nil
}

func (s *Store) ListAccountsByRole(_ context.Context, role domain.Role) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Account{}
	for _, a := range s.accounts {
		if a.Role == role {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// Identities

func (s *Store) CreateIdentity(_ context.Context, identity domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.Email]; ok {
		return domain.ErrDuplicate
	}
	s.identities[identity.Email] = identity
	return nil
}

func (s *Store) GetIdentityByEmail(_ context.Context, email string) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[email]
	if !ok {
		return domain.Identity{}, domain.ErrNotFound
	}
	return identity, nil
}

func (s *Store) DeleteIdentity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, identity := range s.identities {
		if identity.ID == id {
			delete(s.identities, email)
			return nil
		}
	}
	return domain.ErrNotFound
}

// Quizzes

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; ok {
		return domain.ErrDuplicate
	}
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrNotFound
	}
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) GetQuiz(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrNotFound
	}
	return quiz, nil
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// DeleteQuiz refuses while dependent rows remain, like the foreign keys do.
func (s *Store) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrNotFound
	}
	if s.quizReferencedLocked(id) {
		return domain.Invalid("quiz %s still has dependent rows", id)
	}
	delete(s.quizzes, id)
	return nil
}

func (s *Store) quizReferencedLocked(id string) bool {
	for _, q := range s.questions {
		if q.QuizID == id {
			return true
		}
	}
	for _, a := range s.assignments {
		if a.QuizID == id {
			return true
		}
	}
	for _, r := range s.results {
		if r.QuizID == id {
			return true
		}
	}
	for _, p := range s.payments {
		if p.QuizID == id {
			return true
		}
	}
	return false
}

// Questions

func (s *Store) CreateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := s.questions[question.ID]; ok {
		return domain.ErrDuplicate
	}
	question.Options = append([]string(nil), question.Options...)
	if len(question.Options) == 0 {
		question.Options = nil
	}
	s.questions[question.ID] = question
	return nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrNotFound
	}
	return q, nil
}

func (s *Store) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.questions, id)
	return nil
}

func (s *Store) ListQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Question{}
	for _, q := range s.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteQuestionsByQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, q := range s.questions {
		if q.QuizID == quizID {
			delete(s.questions, id)
		}
	}
	return nil
}

// Assignments

func (s *Store) CreateAssignment(_ context.Context, assignment domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[assignment.UserID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := s.quizzes[assignment.QuizID]; !ok {
		return domain.ErrNotFound
	}
	for _, a := range s.assignments {
		if a.UserID == assignment.UserID && a.QuizID == assignment.QuizID {
			return domain.ErrDuplicate
		}
	}
	s.assignments[assignment.ID] = assignment
	return nil
}

func (s *Store) DeleteAssignment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.assignments, id)
	return nil
}

func (s *Store) ListAssignments(_ context.Context) ([]domain.Assignment, error) {
	return s.filterAssignments(func(domain.Assignment) bool { return true }), nil
}

func (s *Store) ListAssignmentsByQuiz(_ context.Context, quizID string) ([]domain.Assignment, error) {
	return s.filterAssignments(func(a domain.Assignment) bool { return a.QuizID == quizID }), nil
}

func (s *Store) ListAssignmentsByUser(_ context.Context, userID string) ([]domain.Assignment, error) {
	return s.filterAssignments(func(a domain.Assignment) bool { return a.UserID == userID }), nil
}

func (s *Store) filterAssignments(keep func(domain.Assignment) bool) []domain.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Assignment{}
	for _, a := range s.assignments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) DeleteAssignmentsByQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.assignments {
		if a.QuizID == quizID {
			delete(s.assignments, id)
		}
	}
	return nil
}

// Results

func (s *Store) CreateResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[result.QuizID]; !ok {
		return domain.ErrNotFound
	}
	answers := make(map[string]string, len(result.Answers))
	for k, v := range result.Answers {
		answers[k] = v
	}
	result.Answers = answers
	s.results[result.ID] = result
	return nil
}

func (s *Store) ListResultsByUser(_ context.Context, userID string) ([]domain.Result, error) {
	return s.filterResults(func(r domain.Result) bool { return r.UserID == userID }), nil
}

func (s *Store) ListResultsByQuiz(_ context.Context, quizID string) ([]domain.Result, error) {
	return s.filterResults(func(r domain.Result) bool { return r.QuizID == quizID }), nil
}

func (s *Store) filterResults(keep func(domain.Result) bool) []domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Result{}
	for _, r := range s.results {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) DeleteResultsByQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.results {
		if r.QuizID == quizID {
			delete(s.results, id)
		}
	}
	return nil
}

// Payments

func (s *Store) CreatePayment(_ context.Context, payment domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[payment.QuizID]; !ok {
		return domain.ErrNotFound
	}
	s.payments[payment.ID] = payment
	return nil
}

func (s *Store) ListPaymentsByUser(_ context.Context, userID string) ([]domain.Payment, error) {
	return s.filterPayments(func(p domain.Payment) bool { return p.UserID == userID }), nil
}

func (s *Store) ListPaymentsByStatus(_ context.Context, status domain.PaymentStatus) ([]domain.Payment, error) {
	return s.filterPayments(func(p domain.Payment) bool { return p.Status == status }), nil
}

func (s *Store) filterPayments(keep func(domain.Payment) bool) []domain.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Payment{}
	for _, p := range s.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) DeletePaymentsByQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.payments {
		if p.QuizID == quizID {
			delete(s.payments, id)
		}
	}
	return nil
}

// Migrate satisfies app.SchemaMigrator; the in-memory tables always exist.
func (s *Store) Migrate(context.Context) error {
	return nil
}

// Diagnose satisfies app.Diagnoser.
func (s *Store) Diagnose(context.Context) app.Diagnostics {
	return app.Diagnostics{
		StoreDriver:    "memory",
		StoreReachable: true,
		Tables:         append([]string(nil), app.RequiredTables...),
		MissingTables:  []string{},
	}
}

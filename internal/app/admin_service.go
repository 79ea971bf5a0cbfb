package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"quiz-delivery-service/internal/domain"
)

// QuizSummary is a quiz with its assignment count for the admin dashboard.
type QuizSummary struct {
	domain.Quiz
	AssignmentCount int `json:"assignment_count"`
}

// Assignee is a user on the assign screen of one quiz.
type Assignee struct {
	domain.Account
	Assigned bool `json:"assigned"`
}

// AssignmentStatus is one row of the per-user admin view.
type AssignmentStatus struct {
	Assignment domain.Assignment `json:"assignment"`
	Quiz       domain.Quiz       `json:"quiz"`
	Completed  bool              `json:"completed"`
	Score      *float64          `json:"score,omitempty"`
}

// UserOverview is everything an admin sees about one user.
type UserOverview struct {
	Account     domain.Account     `json:"account"`
	Assignments []AssignmentStatus `json:"assignments"`
	Results     []ResultWithQuiz   `json:"results"`
	Available   []domain.Quiz      `json:"available"`
}

// QuizResult is a result row with the taker's email.
type QuizResult struct {
	domain.Result
	UserEmail string `json:"user_email"`
}

// AdminService holds the authoring, assignment and reconciliation workflows.
// Every method checks that the caller is an admin.
type AdminService struct {
	store  Store
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

func NewAdminService(store Store, logger *zap.Logger) *AdminService {
	return NewAdminServiceWithClock(store, time.Now, logger)
}

// NewAdminServiceWithClock is used by tests for deterministic timestamps.
func NewAdminServiceWithClock(store Store, now func() time.Time, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{store: store, now: now, newID: NewID, logger: logger}
}

// CreateQuiz stores a new quiz.
func (s *AdminService) CreateQuiz(ctx context.Context, auth AuthContext, title, description string) (domain.Quiz, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := domain.NormalizeQuiz(domain.Quiz{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// UpdateQuiz changes a quiz's title and description.
func (s *AdminService) UpdateQuiz(ctx context.Context, auth AuthContext, id, title, description string) (domain.Quiz, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.Title, quiz.Description = title, description
	if quiz, err = domain.NormalizeQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.store.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// ListQuizzes returns all quizzes, newest first, with assignment counts.
func (s *AdminService) ListQuizzes(ctx context.Context, auth AuthContext) ([]QuizSummary, error) {
	if err := auth.RequireAdmin(); err != nil {
		return nil, err
	}
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := s.store.ListAssignments(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, a := range assignments {
		counts[a.QuizID]++
	}
	out := make([]QuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, QuizSummary{Quiz: q, AssignmentCount: counts[q.ID]})
	}
	return out, nil
}

// AddQuestion validates and stores a question for quizID.
func (s *AdminService) AddQuestion(ctx context.Context, auth AuthContext, quizID string, q domain.Question) (domain.Question, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return domain.Question{}, err
	}
	q.ID = s.newID()
	q.QuizID = quizID
	q, err := domain.NormalizeQuestion(q)
	if err != nil {
		return domain.Question{}, err
	}
	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

// ListQuestions returns a quiz's questions in creation order.
func (s *AdminService) ListQuestions(ctx context.Context, auth AuthContext, quizID string) ([]domain.Question, error) {
	if err := auth.RequireAdmin(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.store.ListQuestions(ctx, quizID)
}

// DeleteQuestion removes one question.
func (s *AdminService) DeleteQuestion(ctx context.Context, auth AuthContext, questionID string) error {
	if err := auth.RequireAdmin(); err != nil {
		return err
	}
	return s.store.DeleteQuestion(ctx, questionID)
}

// ListUsers returns accounts with the user role.
func (s *AdminService) ListUsers(ctx context.Context, auth AuthContext) ([]domain.Account, error) {
	if err := auth.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.store.ListAccountsByRole(ctx, domain.RoleUser)
}

// QuizAssignees lists users and whether each already has quizID.
func (s *AdminService) QuizAssignees(ctx context.Context, auth AuthContext, quizID string) ([]Assignee, error) {
	if err := auth.RequireAdmin(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	users, err := s.store.ListAccountsByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	assigned, err := s.assignedUsers(ctx, quizID)
	if err != nil {
		return nil, err
	}
	out := make([]Assignee, 0, len(users))
	for _, u := range users {
		_, ok := assigned[u.ID]
		out = append(out, Assignee{Account: u, Assigned: ok})
	}
	return out, nil
}

// Assign gives quizID to every user in userIDs that does not have it yet and
// returns how many assignments were inserted. Pairs that already exist, or
// that a concurrent writer inserts first, are skipped without error. An
// unknown user id fails the call with nothing inserted.
func (s *AdminService) Assign(ctx context.Context, auth AuthContext, quizID string, userIDs []string) (int, error) {
	if err := auth.RequireAdmin(); err != nil {
		return 0, err
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return 0, err
	}
	existing, err := s.assignedUsers(ctx, quizID)
	if err != nil {
		return 0, err
	}
	pairs := make([]domain.Pair, 0, len(userIDs))
	for _, id := range dedupe(userIDs) {
		if _, ok := existing[id]; ok {
			continue
		}
		pairs = append(pairs, domain.Pair{UserID: id, QuizID: quizID})
	}
	// An unknown id rejects the whole batch before anything is written.
	for _, p := range pairs {
		if _, err := s.store.GetAccount(ctx, p.UserID); err != nil {
			return 0, fmt.Errorf("assign quiz %s to %s: %w", quizID, p.UserID, err)
		}
	}
	return s.insertAssignments(ctx, pairs)
}

// AssignQuizzes gives every quiz in quizIDs to userID, skipping ones it
// already has.
func (s *AdminService) AssignQuizzes(ctx context.Context, auth AuthContext, userID string, quizIDs []string) (int, error) {
	if err := auth.RequireAdmin(); err != nil {
		return 0, err
	}
	if _, err := s.store.GetAccount(ctx, userID); err != nil {
		return 0, err
	}
	current, err := s.store.ListAssignmentsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	have := make(map[string]struct{}, len(current))
	for _, a := range current {
		have[a.QuizID] = struct{}{}
	}
	pairs := make([]domain.Pair, 0, len(quizIDs))
	for _, id := range dedupe(quizIDs) {
		if _, ok := have[id]; ok {
			continue
		}
		pairs = append(pairs, domain.Pair{UserID: userID, QuizID: id})
	}
	for _, p := range pairs {
		if _, err := s.store.GetQuiz(ctx, p.QuizID); err != nil {
			return 0, fmt.Errorf("assign quiz %s to %s: %w", p.QuizID, userID, err)
		}
	}
	return s.insertAssignments(ctx, pairs)
}

func (s *AdminService) insertAssignments(ctx context.Context, pairs []domain.Pair) (int, error) {
	inserted := 0
	now := s.now().UTC()
	for _, p := range pairs {
		err := s.store.CreateAssignment(ctx, domain.Assignment{
			ID:         s.newID(),
			UserID:     p.UserID,
			QuizID:     p.QuizID,
			AssignedAt: now,
		})
		if errors.Is(err, domain.ErrDuplicate) {
			s.logger.Debug("assignment already exists", zap.String("user_id", p.UserID), zap.String("quiz_id", p.QuizID))
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("assign quiz %s to %s: %w", p.QuizID, p.UserID, err)
		}
		inserted++
	}
	return inserted, nil
}

// Unassign deletes one assignment. Results and payments stay.
func (s *AdminService) Unassign(ctx context.Context, auth AuthContext, assignmentID string) error {
	if err := auth.RequireAdmin(); err != nil {
		return err
	}
	return s.store.DeleteAssignment(ctx, assignmentID)
}

// ReconcilePending lists completed payments whose user/quiz pair has no
// assignment. It reads fresh on every call.
func (s *AdminService) ReconcilePending(ctx context.Context, auth AuthContext) ([]domain.PendingAssignment, error) {
	if err := auth.RequireAdmin(); err != nil {
		return nil, err
	}
	if r, ok := s.store.(PendingReconciler); ok {
		return r.ListPendingAssignments(ctx)
	}
	return s.reconcileInMemory(ctx)
}

func (s *AdminService) reconcileInMemory(ctx context.Context) ([]domain.PendingAssignment, error) {
	payments, err := s.store.ListPaymentsByStatus(ctx, domain.PaymentCompleted)
	if err != nil {
		return nil, err
	}
	assignments, err := s.store.ListAssignments(ctx)
	if err != nil {
		return nil, err
	}
	assigned := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		assigned[domain.Pair{UserID: a.UserID, QuizID: a.QuizID}.Key()] = struct{}{}
	}

	sort.SliceStable(payments, func(i, j int) bool {
		return paymentBefore(payments[i], payments[j])
	})

	seen := make(map[string]struct{})
	emails := make(map[string]string)
	titles := make(map[string]string)
	var pending []domain.PendingAssignment
	for _, p := range payments {
		key := domain.Pair{UserID: p.UserID, QuizID: p.QuizID}.Key()
		if _, ok := assigned[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		entry := domain.PendingAssignment{PaymentID: p.ID, UserID: p.UserID, QuizID: p.QuizID}
		if p.PaidAt != nil {
			entry.PaidAt = *p.PaidAt
		}
		if entry.UserEmail, err = s.lookupEmail(ctx, emails, p.UserID); err != nil {
			return nil, err
		}
		if entry.QuizTitle, err = s.lookupTitle(ctx, titles, p.QuizID); err != nil {
			return nil, err
		}
		pending = append(pending, entry)
	}
	return pending, nil
}

func paymentBefore(a, b domain.Payment) bool {
	var ta, tb time.Time
	if a.PaidAt != nil {
		ta = *a.PaidAt
	}
	if b.PaidAt != nil {
		tb = *b.PaidAt
	}
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return a.ID < b.ID
}

func (s *AdminService) lookupEmail(ctx context.Context, cache map[string]string, userID string) (string, error) {
	if email, ok := cache[userID]; ok {
		return email, nil
	}
	account, err := s.store.GetAccount(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	cache[userID] = account.Email
	return account.Email, nil
}

func (s *AdminService) lookupTitle(ctx context.Context, cache map[string]string, quizID string) (string, error) {
	if title, ok := cache[quizID]; ok {
		return title, nil
	}
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	cache[quizID] = quiz.Title
	return quiz.Title, nil
}

// AssignPending assigns the quiz of a pending entry to its user.
func (s *AdminService) AssignPending(ctx context.Context, auth AuthContext, pair domain.Pair) (int, error) {
	return s.Assign(ctx, auth, pair.QuizID, []string{pair.UserID})
}

// DeleteQuiz removes a quiz with its questions, assignments, results and
// payments. Stores that support it do this atomically. Otherwise the steps
// run in sequence and a failure leaves the earlier steps applied; the
// returned *domain.CascadeError names the step that failed.
func (s *AdminService) DeleteQuiz(ctx context.Context, auth AuthContext, quizID string) error {
	if err := auth.RequireAdmin(); err != nil {
		return err
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return err
	}
	if d, ok := s.store.(QuizCascadeDeleter); ok {
		return d.DeleteQuizCascade(ctx, quizID)
	}

	steps := []struct {
		name string
		run  func(context.Context, string) error
	}{
		{"questions", s.store.DeleteQuestionsByQuiz},
		{"assignments", s.store.DeleteAssignmentsByQuiz},
		{"results", s.store.DeleteResultsByQuiz},
		{"payments", s.store.DeletePaymentsByQuiz},
		{"quiz", s.store.DeleteQuiz},
	}
	for _, step := range steps {
		if err := step.run(ctx, quizID); err != nil {
			s.logger.Error("quiz cascade step failed",
				zap.String("quiz_id", quizID), zap.String("step", step.name), zap.Error(err))
			return &domain.CascadeError{Step: step.name, Err: err}
		}
	}
	return nil
}

// UserOverview joins a user's assignments to their results.
func (s *AdminService) UserOverview(ctx context.Context, auth AuthContext, userID string) (UserOverview, error) {
	if err := auth.RequireAdmin(); err != nil {
		return UserOverview{}, err
	}
	account, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return UserOverview{}, err
	}
	assignments, err := s.store.ListAssignmentsByUser(ctx, userID)
	if err != nil {
		return UserOverview{}, err
	}
	results, err := s.store.ListResultsByUser(ctx, userID)
	if err != nil {
		return UserOverview{}, err
	}
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return UserOverview{}, err
	}

	byID := make(map[string]domain.Quiz, len(quizzes))
	for _, q := range quizzes {
		byID[q.ID] = q
	}
	// Results arrive newest first; keep the latest per quiz.
	latest := make(map[string]domain.Result)
	for _, r := range results {
		if _, ok := latest[r.QuizID]; !ok {
			latest[r.QuizID] = r
		}
	}

	overview := UserOverview{
		Account:     account,
		Assignments: make([]AssignmentStatus, 0, len(assignments)),
		Results:     make([]ResultWithQuiz, 0, len(results)),
		Available:   []domain.Quiz{},
	}
	assigned := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		assigned[a.QuizID] = struct{}{}
		row := AssignmentStatus{Assignment: a, Quiz: byID[a.QuizID]}
		if r, ok := latest[a.QuizID]; ok {
			score := r.Score
			row.Completed = true
			row.Score = &score
		}
		overview.Assignments = append(overview.Assignments, row)
	}
	for _, r := range results {
		overview.Results = append(overview.Results, ResultWithQuiz{Result: r, Quiz: byID[r.QuizID]})
	}
	for _, q := range quizzes {
		if _, ok := assigned[q.ID]; !ok {
			overview.Available = append(overview.Available, q)
		}
	}
	return overview, nil
}

// QuizResults lists a quiz's results with taker emails.
func (s *AdminService) QuizResults(ctx context.Context, auth AuthContext, quizID string) ([]QuizResult, error) {
	if err := auth.RequireAdmin(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	results, err := s.store.ListResultsByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	emails := make(map[string]string)
	out := make([]QuizResult, 0, len(results))
	for _, r := range results {
		email, err := s.lookupEmail(ctx, emails, r.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, QuizResult{Result: r, UserEmail: email})
	}
	return out, nil
}

func (s *AdminService) assignedUsers(ctx context.Context, quizID string) (map[string]struct{}, error) {
	assignments, err := s.store.ListAssignmentsByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		out[a.UserID] = struct{}{}
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quiz-delivery-service/internal/domain"
)

// ResultWithQuiz is a result joined to its quiz.
type ResultWithQuiz struct {
	domain.Result
	Quiz domain.Quiz `json:"quiz"`
}

// QuizCard is a quiz on the user dashboard.
type QuizCard struct {
	domain.Quiz
	State        domain.QuizState `json:"state"`
	AssignmentID string           `json:"assignment_id,omitempty"`
}

// Dashboard splits quizzes into assigned and not-yet-assigned.
type Dashboard struct {
	Assigned   []QuizCard `json:"assigned"`
	Unassigned []QuizCard `json:"unassigned"`
}

// QuizDetail is one quiz as seen by its taker.
type QuizDetail struct {
	Quiz      domain.Quiz           `json:"quiz"`
	State     domain.QuizState      `json:"state"`
	Questions []domain.QuestionView `json:"questions,omitempty"`
	Score     *float64              `json:"score,omitempty"`
}

// UserService holds the quiz-taker workflows. The acting user always comes
// from the AuthContext.
type UserService struct {
	store  Store
	price  float64
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

func NewUserService(store Store, price float64, logger *zap.Logger) *UserService {
	return NewUserServiceWithClock(store, price, time.Now, logger)
}

// NewUserServiceWithClock is used by tests for deterministic timestamps.
func NewUserServiceWithClock(store Store, price float64, now func() time.Time, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{store: store, price: price, now: now, newID: NewID, logger: logger}
}

type pairState struct {
	assignment *domain.Assignment
	paid       bool
	result     *domain.Result
}

func (p pairState) state() domain.QuizState {
	return domain.DeriveState(p.assignment != nil, p.paid, p.result != nil)
}

func (s *UserService) loadState(ctx context.Context, userID, quizID string) (pairState, error) {
	var st pairState
	assignments, err := s.store.ListAssignmentsByUser(ctx, userID)
	if err != nil {
		return st, err
	}
	for i := range assignments {
		if assignments[i].QuizID == quizID {
			st.assignment = &assignments[i]
			break
		}
	}
	payments, err := s.store.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return st, err
	}
	for _, p := range payments {
		if p.QuizID == quizID && p.Status == domain.PaymentCompleted {
			st.paid = true
			break
		}
	}
	results, err := s.store.ListResultsByUser(ctx, userID)
	if err != nil {
		return st, err
	}
	for i := range results {
		if results[i].QuizID == quizID {
			st.result = &results[i]
			break
		}
	}
	return st, nil
}

// Dashboard lists the caller's assigned quizzes and the rest. The reads
// are independent and run together.
func (s *UserService) Dashboard(ctx context.Context, auth AuthContext) (Dashboard, error) {
	userID := auth.UserID()
	if userID == "" {
		return Dashboard{}, domain.ErrUnauthenticated
	}

	var (
		assignments []domain.Assignment
		quizzes     []domain.Quiz
		payments    []domain.Payment
		results     []domain.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		assignments, err = s.store.ListAssignmentsByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		quizzes, err = s.store.ListQuizzes(gctx)
		return err
	})
	g.Go(func() (err error) {
		payments, err = s.store.ListPaymentsByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		results, err = s.store.ListResultsByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	assignmentByQuiz := make(map[string]string, len(assignments))
	for _, a := range assignments {
		assignmentByQuiz[a.QuizID] = a.ID
	}
	paid := make(map[string]bool)
	for _, p := range payments {
		if p.Status == domain.PaymentCompleted {
			paid[p.QuizID] = true
		}
	}
	completed := make(map[string]bool)
	for _, r := range results {
		completed[r.QuizID] = true
	}

	out := Dashboard{Assigned: []QuizCard{}, Unassigned: []QuizCard{}}
	for _, q := range quizzes {
		assignmentID, isAssigned := assignmentByQuiz[q.ID]
		card := QuizCard{
			Quiz:         q,
			State:        domain.DeriveState(isAssigned, paid[q.ID], completed[q.ID]),
			AssignmentID: assignmentID,
		}
		if isAssigned {
			out.Assigned = append(out.Assigned, card)
		} else {
			out.Unassigned = append(out.Unassigned, card)
		}
	}
	return out, nil
}

// QuizForUser returns the quiz, the caller's state and, once assigned, the
// questions without their answers.
func (s *UserService) QuizForUser(ctx context.Context, auth AuthContext, quizID string) (QuizDetail, error) {
	if auth.UserID() == "" {
		return QuizDetail{}, domain.ErrUnauthenticated
	}
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizDetail{}, err
	}
	st, err := s.loadState(ctx, auth.UserID(), quizID)
	if err != nil {
		return QuizDetail{}, err
	}
	detail := QuizDetail{Quiz: quiz, State: st.state()}
	if st.result != nil {
		score := st.result.Score
		detail.Score = &score
	}
	if st.assignment != nil {
		questions, err := s.store.ListQuestions(ctx, quizID)
		if err != nil {
			return QuizDetail{}, err
		}
		detail.Questions = make([]domain.QuestionView, 0, len(questions))
		for _, q := range questions {
			detail.Questions = append(detail.Questions, q.View())
		}
	}
	return detail, nil
}

// Pay simulates checkout: a completed payment is recorded immediately. The
// caller still waits for an admin to assign the quiz.
func (s *UserService) Pay(ctx context.Context, auth AuthContext, quizID string) (domain.Payment, error) {
	if auth.UserID() == "" {
		return domain.Payment{}, domain.ErrUnauthenticated
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return domain.Payment{}, err
	}
	st, err := s.loadState(ctx, auth.UserID(), quizID)
	if err != nil {
		return domain.Payment{}, err
	}
	switch st.state() {
	case domain.StateAssigned, domain.StateCompleted:
		return domain.Payment{}, domain.ErrAlreadyAssigned
	case domain.StateAwaitingAssignment:
		return domain.Payment{}, domain.ErrAlreadyPaid
	}

	paidAt := s.now().UTC()
	payment := domain.Payment{
		ID:     s.newID(),
		UserID: auth.UserID(),
		QuizID: quizID,
		Amount: s.price,
		Status: domain.PaymentCompleted,
		PaidAt: &paidAt,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return domain.Payment{}, err
	}
	s.logger.Info("payment recorded", zap.String("user_id", payment.UserID), zap.String("quiz_id", quizID))
	return payment, nil
}

// StartAttempt loads an assigned quiz into a navigable attempt.
func (s *UserService) StartAttempt(ctx context.Context, auth AuthContext, quizID string) (*Attempt, error) {
	questions, err := s.assignedQuestions(ctx, auth, quizID)
	if err != nil {
		return nil, err
	}
	return NewAttempt(quizID, questions), nil
}

// Submit scores answers for an assigned quiz and stores the result. Nothing
// is written when a question is unanswered.
func (s *UserService) Submit(ctx context.Context, auth AuthContext, quizID string, answers map[string]string) (domain.Result, error) {
	questions, err := s.assignedQuestions(ctx, auth, quizID)
	if err != nil {
		return domain.Result{}, err
	}
	if len(questions) == 0 {
		return domain.Result{}, domain.ErrQuizEmpty
	}
	if missing := domain.Unanswered(questions, answers); len(missing) > 0 {
		return domain.Result{}, &domain.UnansweredError{QuestionIDs: missing}
	}

	kept := make(map[string]string, len(questions))
	for _, q := range questions {
		kept[q.ID] = answers[q.ID]
	}
	result := domain.Result{
		ID:          s.newID(),
		UserID:      auth.UserID(),
		QuizID:      quizID,
		Answers:     kept,
		Score:       domain.Score(questions, kept),
		CompletedAt: s.now().UTC(),
	}
	if err := s.store.CreateResult(ctx, result); err != nil {
		return domain.Result{}, err
	}
	return result, nil
}

func (s *UserService) assignedQuestions(ctx context.Context, auth AuthContext, quizID string) ([]domain.Question, error) {
	if auth.UserID() == "" {
		return nil, domain.ErrUnauthenticated
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	st, err := s.loadState(ctx, auth.UserID(), quizID)
	if err != nil {
		return nil, err
	}
	if st.result != nil {
		return nil, domain.ErrAlreadyCompleted
	}
	if st.assignment == nil {
		return nil, domain.ErrNotAssigned
	}
	return s.store.ListQuestions(ctx, quizID)
}

// MyResults lists the caller's results with quiz details, newest first.
func (s *UserService) MyResults(ctx context.Context, auth AuthContext) ([]ResultWithQuiz, error) {
	if auth.UserID() == "" {
		return nil, domain.ErrUnauthenticated
	}
	results, err := s.store.ListResultsByUser(ctx, auth.UserID())
	if err != nil {
		return nil, err
	}
	out := make([]ResultWithQuiz, 0, len(results))
	for _, r := range results {
		quiz, err := s.store.GetQuiz(ctx, r.QuizID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		out = append(out, ResultWithQuiz{Result: r, Quiz: quiz})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}

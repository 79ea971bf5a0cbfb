package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quiz-delivery-service/internal/domain"
)

const assignmentColumns = `id, user_id, quiz_id, assigned_at`

// CreateAssignment relies on UNIQUE (user_id, quiz_id); a concurrent insert
// of the same pair surfaces as domain.ErrDuplicate.
func (s *Store) CreateAssignment(ctx context.Context, a domain.Assignment) error {
	return exec(ctx, s.pool, "create assignment",
		`INSERT INTO assignments (`+assignmentColumns+`) VALUES ($1, $2, $3, $4)`,
		a.ID, a.UserID, a.QuizID, a.AssignedAt)
}

func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	return execOne(ctx, s.pool, "delete assignment", `DELETE FROM assignments WHERE id=$1`, id)
}

func (s *Store) ListAssignments(ctx context.Context) ([]domain.Assignment, error) {
	return s.listAssignments(ctx, `SELECT `+assignmentColumns+` FROM assignments ORDER BY id`)
}

func (s *Store) ListAssignmentsByQuiz(ctx context.Context, quizID string) ([]domain.Assignment, error) {
	return s.listAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE quiz_id=$1 ORDER BY id`, quizID)
}

func (s *Store) ListAssignmentsByUser(ctx context.Context, userID string) ([]domain.Assignment, error) {
	return s.listAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE user_id=$1 ORDER BY id`, userID)
}

func (s *Store) listAssignments(ctx context.Context, sql string, args ...interface{}) ([]domain.Assignment, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list assignments", err)
	}
	defer rows.Close()

	out := []domain.Assignment{}
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &a.AssignedAt); err != nil {
			return nil, mapError("scan assignment", err)
		}
		out = append(out, a)
	}
	return out, mapError("list assignments", rows.Err())
}

func (s *Store) DeleteAssignmentsByQuiz(ctx context.Context, quizID string) error {
	return exec(ctx, s.pool, "delete assignments", `DELETE FROM assignments WHERE quiz_id=$1`, quizID)
}

// Results

const resultColumns = `id, user_id, quiz_id, answers, score, completed_at`

func (s *Store) CreateResult(ctx context.Context, r domain.Result) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	return exec(ctx, s.pool, "create result",
		`INSERT INTO results (`+resultColumns+`) VALUES ($1, $2, $3, $4::jsonb, $5, $6)`,
		r.ID, r.UserID, r.QuizID, string(answers), r.Score, r.CompletedAt)
}

func (s *Store) ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error) {
	return s.listResults(ctx,
		`SELECT `+resultColumns+` FROM results WHERE user_id=$1 ORDER BY completed_at DESC, id DESC`, userID)
}

func (s *Store) ListResultsByQuiz(ctx context.Context, quizID string) ([]domain.Result, error) {
	return s.listResults(ctx,
		`SELECT `+resultColumns+` FROM results WHERE quiz_id=$1 ORDER BY completed_at DESC, id DESC`, quizID)
}

func (s *Store) listResults(ctx context.Context, sql string, args ...interface{}) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list results", err)
	}
	defer rows.Close()

	out := []domain.Result{}
	for rows.Next() {
		var (
			r       domain.Result
			answers []byte
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.QuizID, &answers, &r.Score, &r.CompletedAt); err != nil {
			return nil, mapError("scan result", err)
		}
		r.Answers = map[string]string{}
		if len(answers) > 0 {
			if err := json.Unmarshal(answers, &r.Answers); err != nil {
				return nil, fmt.Errorf("decode answers: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, mapError("list results", rows.Err())
}

func (s *Store) DeleteResultsByQuiz(ctx context.Context, quizID string) error {
	return exec(ctx, s.pool, "delete results", `DELETE FROM results WHERE quiz_id=$1`, quizID)
}

// Payments

func (s *Store) CreatePayment(ctx context.Context, p domain.Payment) error {
	return exec(ctx, s.pool, "create payment",
		`INSERT INTO payments (id, user_id, quiz_id, amount, status, paid_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.UserID, p.QuizID, p.Amount, string(p.Status), p.PaidAt)
}

const paymentSelect = `SELECT id, user_id, quiz_id, amount::float8, status, paid_at FROM payments`

func (s *Store) ListPaymentsByUser(ctx context.Context, userID string) ([]domain.Payment, error) {
	return s.listPayments(ctx, paymentSelect+` WHERE user_id=$1 ORDER BY id`, userID)
}

func (s *Store) ListPaymentsByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error) {
	return s.listPayments(ctx, paymentSelect+` WHERE status=$1 ORDER BY id`, string(status))
}

func (s *Store) listPayments(ctx context.Context, sql string, args ...interface{}) ([]domain.Payment, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list payments", err)
	}
	defer rows.Close()

	out := []domain.Payment{}
	for rows.Next() {
		var (
			p      domain.Payment
			status string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.QuizID, &p.Amount, &status, &p.PaidAt); err != nil {
			return nil, mapError("scan payment", err)
		}
		p.Status = domain.PaymentStatus(status)
		out = append(out, p)
	}
	return out, mapError("list payments", rows.Err())
}

func (s *Store) DeletePaymentsByQuiz(ctx context.Context, quizID string) error {
	return exec(ctx, s.pool, "delete payments", `DELETE FROM payments WHERE quiz_id=$1`, quizID)
}

package postgres

import (
	"context"

	"quiz-delivery-service/internal/domain"
)

var cascadeSteps = []struct {
	name string
	sql  string
}{
	{"questions", `DELETE FROM questions WHERE quiz_id=$1`},
	{"assignments", `DELETE FROM assignments WHERE quiz_id=$1`},
	{"results", `DELETE FROM results WHERE quiz_id=$1`},
	{"payments", `DELETE FROM payments WHERE quiz_id=$1`},
	{"quiz", `DELETE FROM quizzes WHERE id=$1`},
}

// DeleteQuizCascade removes a quiz and every dependent row in one
// transaction. A failed step rolls back the earlier ones.
func (s *Store) DeleteQuizCascade(ctx context.Context, quizID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapError("begin cascade", err)
	}
	defer tx.Rollback(ctx)

	for _, step := range cascadeSteps {
		if err := exec(ctx, tx, "delete "+step.name, step.sql, quizID); err != nil {
			return &domain.CascadeError{Step: step.name, Err: err}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &domain.CascadeError{Step: "commit", Err: mapError("commit cascade", err)}
	}
	return nil
}

// ListPendingAssignments returns, per unassigned user/quiz pair, the
// earliest completed payment, oldest first.
func (s *Store) ListPendingAssignments(ctx context.Context) ([]domain.PendingAssignment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, email, quiz_id, title, paid_at FROM (
			SELECT DISTINCT ON (p.user_id, p.quiz_id)
				p.id, p.user_id, COALESCE(ac.email, '') AS email, p.quiz_id,
				COALESCE(q.title, '') AS title,
				COALESCE(p.paid_at, 'epoch'::timestamptz) AS paid_at
			FROM payments p
			LEFT JOIN assignments a ON a.user_id = p.user_id AND a.quiz_id = p.quiz_id
			LEFT JOIN accounts ac ON ac.id = p.user_id
			LEFT JOIN quizzes q ON q.id = p.quiz_id
			WHERE p.status = 'completed' AND a.id IS NULL
			ORDER BY p.user_id, p.quiz_id, p.paid_at NULLS FIRST, p.id
		) pending
		ORDER BY paid_at, id`)
	if err != nil {
		return nil, mapError("list pending assignments", err)
	}
	defer rows.Close()

	var out []domain.PendingAssignment
	for rows.Next() {
		var p domain.PendingAssignment
		if err := rows.Scan(&p.PaymentID, &p.UserID, &p.UserEmail, &p.QuizID, &p.QuizTitle, &p.PaidAt); err != nil {
			return nil, mapError("scan pending assignment", err)
		}
		out = append(out, p)
	}
	return out, mapError("list pending assignments", rows.Err())
}

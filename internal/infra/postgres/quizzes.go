package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quiz-delivery-service/internal/domain"
)

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	return exec(ctx, s.pool, "create quiz",
		`INSERT INTO quizzes (id, title, description, created_at) VALUES ($1, $2, $3, $4)`,
		quiz.ID, quiz.Title, quiz.Description, quiz.CreatedAt)
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	return execOne(ctx, s.pool, "update quiz",
		`UPDATE quizzes SET title=$2, description=$3 WHERE id=$1`,
		quiz.ID, quiz.Title, quiz.Description)
}

func (s *Store) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	var q domain.Quiz
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, created_at FROM quizzes WHERE id=$1`, id).
		Scan(&q.ID, &q.Title, &q.Description, &q.CreatedAt)
	if err != nil {
		return domain.Quiz{}, mapError("get quiz", err)
	}
	return q, nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, created_at FROM quizzes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, mapError("list quizzes", err)
	}
	defer rows.Close()

	out := []domain.Quiz{}
	for rows.Next() {
		var q domain.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.CreatedAt); err != nil {
			return nil, mapError("scan quiz", err)
		}
		out = append(out, q)
	}
	return out, mapError("list quizzes", rows.Err())
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	return execOne(ctx, s.pool, "delete quiz", `DELETE FROM quizzes WHERE id=$1`, id)
}

// Questions

const questionColumns = `id, quiz_id, prompt, type, options, correct_answer`

func (s *Store) CreateQuestion(ctx context.Context, question domain.Question) error {
	options, err := json.Marshal(question.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	return exec(ctx, s.pool, "create question",
		`INSERT INTO questions (`+questionColumns+`) VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		question.ID, question.QuizID, question.Prompt, string(question.Type), string(options), question.CorrectAnswer)
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if err != nil {
		return domain.Question{}, mapError("get question", err)
	}
	return q, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return execOne(ctx, s.pool, "delete question", `DELETE FROM questions WHERE id=$1`, id)
}

func (s *Store) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE quiz_id=$1 ORDER BY id`, quizID)
	if err != nil {
		return nil, mapError("list questions", err)
	}
	defer rows.Close()

	out := []domain.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, mapError("scan question", err)
		}
		out = append(out, q)
	}
	return out, mapError("list questions", rows.Err())
}

func (s *Store) DeleteQuestionsByQuiz(ctx context.Context, quizID string) error {
	return exec(ctx, s.pool, "delete questions", `DELETE FROM questions WHERE quiz_id=$1`, quizID)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row scanner) (domain.Question, error) {
	var (
		q       domain.Question
		kind    string
		options []byte
	)
	if err := row.Scan(&q.ID, &q.QuizID, &q.Prompt, &kind, &options, &q.CorrectAnswer); err != nil {
		return domain.Question{}, err
	}
	q.Type = domain.QuestionType(kind)
	if len(options) > 0 {
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return domain.Question{}, fmt.Errorf("decode options: %w", err)
		}
	}
	return q, nil
}

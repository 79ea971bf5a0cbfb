package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"quiz-delivery-service/internal/domain"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, domain.ErrNotFound},
		{"missing table", &pgconn.PgError{Code: "42P01", Message: `relation "quizzes" does not exist`}, domain.ErrSchemaNotReady},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "assignments_user_id_quiz_id_key"}, domain.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503"}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError("op", tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMapErrorKeepsUnknownErrors(t *testing.T) {
	cause := &pgconn.PgError{Code: "40001", Message: "serialization failure"}
	got := mapError("create quiz", cause)

	var pgErr *pgconn.PgError
	if !errors.As(got, &pgErr) || pgErr.Code != "40001" {
		t.Fatalf("expected original error in chain, got %v", got)
	}
	if errors.Is(got, domain.ErrSchemaNotReady) || errors.Is(got, domain.ErrDuplicate) {
		t.Fatalf("unexpected sentinel in %v", got)
	}
	if mapError("op", nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
}

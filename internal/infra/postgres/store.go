package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-delivery-service/internal/app"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store implements app.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ app.Store              = (*Store)(nil)
	_ app.QuizCascadeDeleter = (*Store)(nil)
	_ app.PendingReconciler  = (*Store)(nil)
	_ app.Diagnoser          = (*Store)(nil)
)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for url. The schema is not checked here; queries
// against missing tables fail with domain.ErrSchemaNotReady.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, q querier, op, sql string, args ...interface{}) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return mapError(op, pgx.ErrNoRows)
	}
	return nil
}

func exec(ctx context.Context, q querier, op, sql string, args ...interface{}) error {
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return mapError(op, err)
	}
	return nil
}

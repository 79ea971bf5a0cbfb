package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"quiz-delivery-service/internal/infra/postgres/migrations"
)

// Migrator applies the embedded schema migrations with bun.
type Migrator struct {
	dsn    string
	logger *zap.Logger
}

func NewMigrator(dsn string, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{dsn: dsn, logger: logger}
}

// Migrate brings the schema up to date. Already applied migrations are
// skipped, so calling it repeatedly is safe.
func (m *Migrator) Migrate(ctx context.Context) error {
	if m.dsn == "" {
		return fmt.Errorf("postgres url not configured")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(m.dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if group.IsZero() {
		m.logger.Info("schema up to date")
		return nil
	}
	m.logger.Info("migrations applied", zap.String("group", group.String()))
	return nil
}

package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"quiz-delivery-service/internal/app"
	"quiz-delivery-service/internal/config"
	"quiz-delivery-service/internal/infra/memory"
	"quiz-delivery-service/internal/infra/postgres"
)

// storeStack is the storage side chosen by store.driver.
type storeStack struct {
	store     app.Store
	migrator  app.SchemaMigrator
	diagnoser app.Diagnoser
	close     func()
}

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*storeStack, error) {
	if cfg.Store.Driver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		s := memory.NewStore()
		return &storeStack{store: s, migrator: s, diagnoser: s, close: func() {}}, nil
	}

	pool, err := postgres.Connect(ctx, cfg.Store.URL)
	if err != nil {
		return nil, err
	}
	s := postgres.NewStore(pool)
	return &storeStack{
		store:     s,
		migrator:  postgres.NewMigrator(cfg.Store.URL, logger),
		diagnoser: s,
		close:     pool.Close,
	}, nil
}

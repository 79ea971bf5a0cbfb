package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quiz-delivery-service/internal/config"
	"quiz-delivery-service/internal/infra/postgres"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Store.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate needs store.driver %q, got %q", config.DriverPostgres, cfg.Store.Driver)
	}
	return postgres.NewMigrator(cfg.Store.URL, logger).Migrate(ctx)
}

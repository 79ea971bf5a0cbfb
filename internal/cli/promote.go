package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-delivery-service/internal/app"
)

// NewPromoteCmd grants the admin role to an account.
func NewPromoteCmd(configPath *string) *cobra.Command {
	var userID, email string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromote(cmd.Context(), *configPath, userID, email)
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "account id to promote")
	cmd.Flags().StringVar(&email, "email", "", "email used when the account does not exist yet")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func runPromote(ctx context.Context, configPath, userID, email string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	stack, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.close()

	setup := app.NewSetupService(stack.store, stack.migrator, stack.diagnoser, app.SetupOptions{
		APIKey: cfg.Store.APIKey,
		Logger: logger,
	})
	account, err := setup.PromoteAdmin(ctx, userID, email)
	if err != nil {
		return err
	}
	logger.Info("admin ready", zap.String("account_id", account.ID), zap.String("email", account.Email))
	return nil
}

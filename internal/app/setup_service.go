package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"quiz-delivery-service/internal/domain"
)

// SchemaMigrator creates or upgrades the store schema.
type SchemaMigrator interface {
	Migrate(ctx context.Context) error
}

// Diagnostics reports store connectivity for operators.
type Diagnostics struct {
	StoreDriver    string   `json:"store_driver"`
	StoreReachable bool     `json:"store_reachable"`
	StoreError     string   `json:"store_error,omitempty"`
	ServerVersion  string   `json:"server_version,omitempty"`
	Tables         []string `json:"tables"`
	MissingTables  []string `json:"missing_tables"`
	RedisReachable *bool    `json:"redis_reachable,omitempty"`
	APIKeyLength   int      `json:"api_key_length"`
}

// Diagnoser inspects the store.
type Diagnoser interface {
	Diagnose(ctx context.Context) Diagnostics
}

// RequiredTables are the tables the workflows need.
var RequiredTables = []string{"accounts", "identities", "quizzes", "questions", "assignments", "results", "payments"}

// SetupService runs the operational bootstrap actions.
type SetupService struct {
	accounts  AccountRepository
	migrator  SchemaMigrator
	diagnoser Diagnoser
	pingRedis func(ctx context.Context) error
	apiKeyLen int
	logger    *zap.Logger
}

// SetupOptions configures NewSetupService.
type SetupOptions struct {
	// PingRedis is nil when no Redis is configured.
	PingRedis func(ctx context.Context) error
	APIKey    string
	Logger    *zap.Logger
}

func NewSetupService(accounts AccountRepository, migrator SchemaMigrator, diagnoser Diagnoser, opts SetupOptions) *SetupService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SetupService{
		accounts:  accounts,
		migrator:  migrator,
		diagnoser: diagnoser,
		pingRedis: opts.PingRedis,
		apiKeyLen: len(opts.APIKey),
		logger:    logger,
	}
}

// InitSchema applies migrations. Running it twice is harmless.
func (s *SetupService) InitSchema(ctx context.Context) error {
	if err := s.migrator.Migrate(ctx); err != nil {
		return err
	}
	s.logger.Info("schema initialized")
	return nil
}

// PromoteAdmin grants the admin role, creating the account when needed.
// The new role applies from the account's next session.
func (s *SetupService) PromoteAdmin(ctx context.Context, userID, email string) (domain.Account, error) {
	if userID == "" {
		return domain.Account{}, domain.Invalid("user id is required")
	}
	account, err := s.accounts.GetAccount(ctx, userID)
	switch {
	case err == nil:
		if err := s.accounts.UpdateAccountRole(ctx, userID, domain.RoleAdmin); err != nil {
			return domain.Account{}, err
		}
		account.Role = domain.RoleAdmin
	case errors.Is(err, domain.ErrNotFound):
		email, err := domain.NormalizeEmail(email)
		if err != nil {
			return domain.Account{}, err
		}
		account = domain.Account{ID: userID, Email: email, Role: domain.RoleAdmin}
		if err := s.accounts.CreateAccount(ctx, account); err != nil {
			return domain.Account{}, err
		}
	default:
		return domain.Account{}, err
	}
	s.logger.Info("account promoted to admin", zap.String("account_id", userID))
	return account, nil
}

// Diagnose reports the store and Redis state.
func (s *SetupService) Diagnose(ctx context.Context) Diagnostics {
	d := s.diagnoser.Diagnose(ctx)
	d.APIKeyLength = s.apiKeyLen
	if s.pingRedis != nil {
		ok := s.pingRedis(ctx) == nil
		d.RedisReachable = &ok
	}
	return d
}

// MissingTables returns the entries of RequiredTables absent from present.
func MissingTables(present []string) []string {
	have := make(map[string]struct{}, len(present))
	for _, t := range present {
		have[t] = struct{}{}
	}
	missing := []string{}
	for _, t := range RequiredTables {
		if _, ok := have[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"quiz-delivery-service/internal/domain"
)

// IdentityBridge maps an authenticated identity to its account, creating the
// account with the user role on first sight.
type IdentityBridge struct {
	accounts AccountRepository
	timeout  time.Duration
	logger   *zap.Logger
	sf       singleflight.Group
}

func NewIdentityBridge(accounts AccountRepository, timeout time.Duration, logger *zap.Logger) *IdentityBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityBridge{accounts: accounts, timeout: timeout, logger: logger}
}

// Resolve returns the account for identity. A missing table is reported as
// domain.ErrSchemaNotReady so callers can point at setup.
func (b *IdentityBridge) Resolve(ctx context.Context, identity domain.Identity) (domain.Account, error) {
	if identity.ID == "" {
		return domain.Account{}, domain.Invalid("identity id is required")
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	// Concurrent first logins of one identity share a single lookup and insert.
	result, err, _ := b.sf.Do(identity.ID, func() (interface{}, error) {
		return b.resolve(ctx, identity)
	})
	if err != nil {
		if errors.Is(err, domain.ErrSchemaNotReady) {
			return domain.Account{}, domain.ErrSchemaNotReady
		}
		return domain.Account{}, fmt.Errorf("resolve account: %w", err)
	}
	return result.(domain.Account), nil
}

func (b *IdentityBridge) resolve(ctx context.Context, identity domain.Identity) (domain.Account, error) {
	account, err := b.accounts.GetAccount(ctx, identity.ID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Account{}, err
	}

	email := identity.Email
	if email == "" {
		email = "unknown@example.com"
	}
	account = domain.Account{ID: identity.ID, Email: email, Role: domain.RoleUser}
	if err := b.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// Another instance inserted it first, unless the email belongs
			// to a different account.
			existing, rerr := b.accounts.GetAccount(ctx, identity.ID)
			if errors.Is(rerr, domain.ErrNotFound) {
				return domain.Account{}, domain.ErrEmailTaken
			}
			return existing, rerr
		}
		return domain.Account{}, err
	}
	b.logger.Info("account created", zap.String("account_id", account.ID), zap.String("email", account.Email))
	return account, nil
}

package app

import (
	"context"
	"time"

	"quiz-delivery-service/internal/domain"
)

// AuthContext is the authorization state of one session. It is built once
// when the session is issued and travels with each request.
type AuthContext struct {
	Account   domain.Account
	SessionID string
	ExpiresAt time.Time
}

// UserID is the id of the session's account.
func (a AuthContext) UserID() string {
	return a.Account.ID
}

// IsAdmin reports whether the session may run admin workflows.
func (a AuthContext) IsAdmin() bool {
	return a.Account.IsAdmin()
}

// RequireAdmin returns domain.ErrForbidden unless the session is an admin.
func (a AuthContext) RequireAdmin() error {
	if a.Account.ID == "" {
		return domain.ErrUnauthenticated
	}
	if !a.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

type authContextKey struct{}

// WithAuth returns a copy of ctx carrying auth.
func WithAuth(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// AuthFrom extracts the AuthContext placed by WithAuth.
func AuthFrom(ctx context.Context) (AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey{}).(AuthContext)
	return auth, ok
}

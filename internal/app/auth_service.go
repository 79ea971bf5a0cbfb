package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"quiz-delivery-service/internal/domain"
)

// Session is what a successful sign-in or sign-up hands back.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   domain.Account `json:"account"`
}

type sessionClaims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService is the identity provider: credentials, sessions and the
// session-change hook into the identity bridge.
type AuthService struct {
	identities IdentityRepository
	bridge     *IdentityBridge
	limiter    AttemptLimiter
	sessions   SessionStore
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
	newID      func() string
	logger     *zap.Logger
}

// AuthOptions configures NewAuthService.
type AuthOptions struct {
	Secret     string
	SessionTTL time.Duration
	Now        func() time.Time
	Logger     *zap.Logger
}

func NewAuthService(identities IdentityRepository, bridge *IdentityBridge, limiter AttemptLimiter, sessions SessionStore, opts AuthOptions) *AuthService {
	s := &AuthService{
		identities: identities,
		bridge:     bridge,
		limiter:    limiter,
		sessions:   sessions,
		secret:     []byte(opts.Secret),
		ttl:        opts.SessionTTL,
		now:        opts.Now,
		newID:      NewID,
		logger:     opts.Logger,
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// SignUp registers credentials and opens a session.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (Session, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < domain.MinPasswordLength {
		return Session{}, domain.Invalid("password must be at least %d characters", domain.MinPasswordLength)
	}
	ok, err := s.limiter.Allow(ctx, "signup:"+email)
	if err != nil {
		return Session{}, fmt.Errorf("check attempts: %w", err)
	}
	if !ok {
		return Session{}, domain.ErrTooManyAttempts
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	identity := domain.Identity{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.identities.CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return Session{}, domain.ErrEmailTaken
		}
		return Session{}, err
	}
	session, err := s.open(ctx, identity)
	if err != nil {
		// No account to sign in to, so the credentials must not linger.
		if derr := s.identities.DeleteIdentity(ctx, identity.ID); derr != nil {
			s.logger.Warn("drop identity after failed sign-up", zap.String("email", email), zap.Error(derr))
		}
		return Session{}, err
	}
	return session, nil
}

// SignIn checks credentials and opens a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	key := "signin:" + email
	ok, err := s.limiter.Allow(ctx, key)
	if err != nil {
		return Session{}, fmt.Errorf("check attempts: %w", err)
	}
	if !ok {
		return Session{}, domain.ErrTooManyAttempts
	}

	identity, err := s.identities.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.Warn("reset sign-in attempts", zap.String("email", email), zap.Error(err))
	}
	return s.open(ctx, identity)
}

// open is the session-change hook: the bridge resolves the account once and
// its role is sealed into the token.
func (s *AuthService) open(ctx context.Context, identity domain.Identity) (Session, error) {
	account, err := s.bridge.Resolve(ctx, identity)
	if err != nil {
		return Session{}, err
	}
	now := s.now()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		Email: account.Email,
		Role:  account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	return Session{Token: token, ExpiresAt: expires.UTC(), Account: account}, nil
}

// Authenticate validates a session token and returns its AuthContext.
func (s *AuthService) Authenticate(ctx context.Context, token string) (AuthContext, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthenticated
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return AuthContext{}, domain.ErrUnauthenticated
	}
	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return AuthContext{}, fmt.Errorf("check session: %w", err)
	}
	if revoked {
		return AuthContext{}, domain.ErrUnauthenticated
	}
	return AuthContext{
		Account:   domain.Account{ID: claims.Subject, Email: claims.Email, Role: claims.Role},
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the session until it would have expired.
func (s *AuthService) SignOut(ctx context.Context, auth AuthContext) error {
	if auth.SessionID == "" {
		return domain.ErrUnauthenticated
	}
	return s.sessions.Revoke(ctx, auth.SessionID, auth.ExpiresAt)
}

// NewID returns a time-ordered id so sorting by id follows creation order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/metrics"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

var (
	// ErrUnauthorized covers every access or refresh token rejection: absent,
	// malformed, expired, wrongly signed, reused, or for a subject that is gone.
	ErrUnauthorized = apperr.Authentication("invalid or expired session")
	// ErrInvalidCredentials is returned for both unknown logins and wrong passwords.
	ErrInvalidCredentials = apperr.Authentication("invalid credentials")
)

// CredentialStore is the slice of the user repository the token lifecycle needs.
type CredentialStore interface {
	FindByID(ctx context.Context, id models.UserID) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	SetRefreshTokenHash(ctx context.Context, id models.UserID, hash string) error
	SwapRefreshTokenHash(ctx context.Context, id models.UserID, current, next string) error
}

// Config holds the signing material and lifetimes. It is built once from the
// process configuration.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Manager issues, verifies, rotates and revokes session tokens. Access tokens are
// verified by signature alone; refresh tokens must also match the single digest
// stored on the user.
type Manager struct {
	access     signer
	refresh    signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      CredentialStore
	now        func() time.Time
}

// NewManager constructs a Manager backed by the provided credential store.
func NewManager(cfg Config, store CredentialStore) *Manager {
	if store == nil {
		panic("auth: credential store must not be nil")
	}
	return &Manager{
		access:     signer{secret: []byte(cfg.AccessSecret)},
		refresh:    signer{secret: []byte(cfg.RefreshSecret)},
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue mints a new token pair for the user and stores the refresh digest,
// invalidating any refresh token issued before.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	ctx, span := logging.StartSpan(ctx, "auth.issue")
	defer span.End()

	tokens, digest, err := m.mint(user)
	if err != nil {
		return models.SessionTokens{}, span.Fail(err)
	}

	if err := m.store.SetRefreshTokenHash(ctx, user.ID, digest); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, span.Fail(ErrUnauthorized)
		}
		return models.SessionTokens{}, span.Fail(apperr.Dependency("store refresh token", err))
	}

	metrics.TokensIssuedTotal.WithLabelValues("issue").Inc()
	return tokens, nil
}

// VerifyAccess checks an access token and resolves its subject.
func (m *Manager) VerifyAccess(ctx context.Context, token string) (models.User, error) {
	userID, err := m.access.parse(token, &AccessClaims{})
	if err != nil {
		logging.FromContext(ctx).Debug("access token rejected", slog.String("error", err.Error()))
		return models.User{}, ErrUnauthorized
	}
	return m.loadSubject(ctx, userID)
}

// Refresh exchanges a refresh token for a new pair. The presented token must be
// the one currently stored for its subject; presenting a rotated or revoked token
// revokes the session. Of two concurrent refreshes with the same token at most one
// succeeds. A request that loads the subject after the other has rotated looks
// like a replay and revokes the session.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	ctx, span := logging.StartSpan(ctx, "auth.refresh")
	defer span.End()

	userID, err := m.refresh.parse(refreshToken, &jwt.RegisteredClaims{})
	if err != nil {
		metrics.RefreshRejectedTotal.WithLabelValues("invalid").Inc()
		return models.SessionTokens{}, span.Fail(ErrUnauthorized)
	}

	user, err := m.loadSubject(ctx, userID)
	if err != nil {
		metrics.RefreshRejectedTotal.WithLabelValues("invalid").Inc()
		return models.SessionTokens{}, span.Fail(err)
	}

	presented := hashToken(refreshToken)
	if user.RefreshTokenHash == "" || user.RefreshTokenHash != presented {
		metrics.RefreshRejectedTotal.WithLabelValues("reuse").Inc()
		logging.FromContext(ctx).Warn("stale refresh token presented, revoking session",
			slog.String("user_id", string(user.ID)))
		if err := m.store.SetRefreshTokenHash(ctx, user.ID, ""); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, span.Fail(apperr.Dependency("revoke refresh token", err))
		}
		return models.SessionTokens{}, span.Fail(ErrUnauthorized)
	}

	tokens, digest, err := m.mint(user)
	if err != nil {
		return models.SessionTokens{}, span.Fail(err)
	}

	if err := m.store.SwapRefreshTokenHash(ctx, user.ID, presented, digest); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Another refresh with the same token won the swap.
			metrics.RefreshRejectedTotal.WithLabelValues("race").Inc()
			return models.SessionTokens{}, span.Fail(ErrUnauthorized)
		}
		return models.SessionTokens{}, span.Fail(apperr.Dependency("rotate refresh token", err))
	}

	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	return tokens, nil
}

// Revoke clears the stored refresh digest so no outstanding refresh token for the
// user can be used again.
func (m *Manager) Revoke(ctx context.Context, userID models.UserID) error {
	if err := m.store.SetRefreshTokenHash(ctx, userID, ""); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return apperr.Dependency("revoke refresh token", err)
	}
	return nil
}

// Authenticate resolves a handle or email and checks the password.
func (m *Manager) Authenticate(ctx context.Context, login, password string) (models.User, error) {
	if login == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := m.store.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, apperr.Dependency("load user", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (m *Manager) loadSubject(ctx context.Context, userID models.UserID) (models.User, error) {
	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrUnauthorized
		}
		return models.User{}, apperr.Dependency("load session subject", err)
	}
	return user, nil
}

// mint signs a token pair and returns it with the digest of its refresh token.
func (m *Manager) mint(user models.User) (models.SessionTokens, string, error) {
	if user.ID == "" {
		return models.SessionTokens{}, "", apperr.Validation("user id must be provided")
	}

	now := m.now()
	accessClaims := AccessClaims{
		Handle:           user.Handle,
		Email:            user.Email,
		DisplayName:      user.DisplayName,
		RegisteredClaims: registeredClaims(user.ID, now, m.accessTTL),
	}
	accessToken, err := m.access.sign(accessClaims)
	if err != nil {
		return models.SessionTokens{}, "", apperr.Dependency("sign access token", err)
	}

	refreshClaims := registeredClaims(user.ID, now, m.refreshTTL)
	refreshToken, err := m.refresh.sign(refreshClaims)
	if err != nil {
		return models.SessionTokens{}, "", apperr.Dependency("sign refresh token", err)
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, hashToken(refreshToken), nil
}

// HashPassword derives the stored bcrypt hash for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("password must be at most 72 bytes")
		}
		return "", apperr.Dependency("hash password", err)
	}
	return string(hash), nil
}

// CheckPassword compares a password against a stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

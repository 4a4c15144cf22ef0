package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// Authenticator resolves the caller from an access token carried in the
// Authorization header or the accessToken cookie.
type Authenticator struct {
	Sessions SessionManager
}

// RequireAuth rejects requests without a valid access token.
func (a Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := accessToken(r)
		if token == "" {
			writeError(ctx, w, auth.ErrUnauthorized)
			return
		}
		user, err := a.Sessions.VerifyAccess(ctx, token)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r, user)))
	})
}

// OptionalAuth attaches the caller when a valid token is present and otherwise
// continues anonymously.
func (a Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := accessToken(r); token != "" {
			if user, err := a.Sessions.VerifyAccess(r.Context(), token); err == nil {
				r = r.WithContext(withCaller(r, user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func withCaller(r *http.Request, user models.User) context.Context {
	ctx := auth.WithUser(r.Context(), user)
	return logging.With(ctx, "user_id", string(user.ID))
}

func accessToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(accessCookie); err == nil {
		return c.Value
	}
	return ""
}

// caller returns the authenticated user id, or "" for anonymous requests.
func caller(r *http.Request) models.UserID {
	user, _ := auth.UserFromContext(r.Context())
	return user.ID
}

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens, secure bool) {
	http.SetCookie(w, sessionCookie(accessCookie, tokens.AccessToken, tokens.AccessExpiresAt, secure))
	http.SetCookie(w, sessionCookie(refreshCookie, tokens.RefreshToken, tokens.RefreshExpiresAt, secure))
}

func clearSessionCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{accessCookie, refreshCookie} {
		c := sessionCookie(name, "", time.Unix(0, 0), secure)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func sessionCookie(name, value string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

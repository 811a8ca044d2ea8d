package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// SessionCookie carries the session token for browser clients. API clients
// may send the same token as a bearer header instead.
const SessionCookie = "portal_session"

type ctxKey int

const identityKey ctxKey = iota

// IdentityFrom returns the authenticated identity placed in the request
// context by RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}

// WithIdentity is exported for handler tests.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// RequireAuth is the route guard: a pure function of session state,
// re-evaluated on every request. Authenticated requests proceed with the
// identity in context; unauthenticated ones are redirected to the login page
// or, for API routes, rejected with 401. There are no intermediate states.
func RequireAuth(sessions SessionReader, redirectToLogin bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := sessions.Current(r.Context(), TokenFromRequest(r))
			if err != nil {
				if !errors.Is(err, ErrNoSession) {
					logger.Warn("session lookup failed", zap.Error(err))
				}
				if redirectToLogin {
					http.Redirect(w, r, "/login", http.StatusFound)
				} else {
					http.Error(w, "authentication required", http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// TokenFromRequest extracts the session token from the cookie or, failing
// that, from a bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

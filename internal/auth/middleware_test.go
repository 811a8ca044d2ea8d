package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessions struct {
	tokens map[string]Identity
}

func (f *fakeSessions) Current(ctx context.Context, token string) (Identity, error) {
	ident, ok := f.tokens[token]
	if !ok {
		return Identity{}, ErrNoSession
	}
	return ident, nil
}

func guardedEcho(t *testing.T, sessions SessionReader, redirectToLogin bool) (http.Handler, *Identity) {
	var seen Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := IdentityFrom(r.Context())
		require.True(t, ok)
		seen = ident
		w.WriteHeader(http.StatusOK)
	})
	return RequireAuth(sessions, redirectToLogin, zap.NewNop())(next), &seen
}

func TestRequireAuth_NoSessionRedirectsPages(t *testing.T) {
	h, _ := guardedEcho(t, &fakeSessions{tokens: map[string]Identity{}}, true)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profile", nil))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestRequireAuth_NoSessionRejectsAPI(t *testing.T) {
	h, _ := guardedEcho(t, &fakeSessions{tokens: map[string]Identity{}}, false)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/patients/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuth_CookiePutsIdentityInContext(t *testing.T) {
	ident := Identity{ID: uuid.New(), Email: "jane@example.com"}
	h, seen := guardedEcho(t, &fakeSessions{tokens: map[string]Identity{"tok-1": ident}}, true)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-1"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ident, *seen)
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	ident := Identity{ID: uuid.New(), Email: "jane@example.com"}
	h, seen := guardedEcho(t, &fakeSessions{tokens: map[string]Identity{"tok-1": ident}}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/patients/me", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ident, *seen)
}

func TestTokenFromRequest_PrefersCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	req.Header.Set("Authorization", "Bearer from-header")

	assert.Equal(t, "from-cookie", TokenFromRequest(req))
}

func TestTokenFromRequest_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", TokenFromRequest(req))
}

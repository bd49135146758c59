package identity

import (
	"context"
	"net/http"
)

// userContextKey is the context key for the authenticated user snapshot.
type userContextKey struct{}

// WithUser stores a user snapshot in the context.
func WithUser(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, userContextKey{}, claims)
}

// UserFromContext returns the authenticated user snapshot, or nil when the
// request carried no valid session.
func UserFromContext(ctx context.Context) *UserClaims {
	claims, _ := ctx.Value(userContextKey{}).(*UserClaims)
	return claims
}

// Middleware resolves the token cookie into an identity for each request.
type Middleware struct {
	Sessions *SessionManager
}

// ExtractUser reads the token cookie, verifies it, and on success attaches
// the {id, role} snapshot to the request context. It never blocks the
// request; an absent or invalid token just leaves the context without a
// user. Enforcement happens per-route via EnsureUser.
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
			if claims := m.Sessions.Verify(r.Context(), cookie.Value); claims != nil {
				r = r.WithContext(WithUser(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// EnsureUser guards a route: requests without an authenticated user are
// rejected with 401.
func (m *Middleware) EnsureUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

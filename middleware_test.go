package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	identity "github.com/chatloop/identity"
)

func TestExtractUser(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestSessionManager()
	mw := &identity.Middleware{Sessions: manager}

	token, err := manager.Create(ctx, "", "", &identity.User{ID: 11, Role: identity.RoleUser})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		cookie     *http.Cookie
		wantClaims bool
	}{
		{name: "valid token", cookie: &http.Cookie{Name: identity.TokenCookieName, Value: token}, wantClaims: true},
		{name: "no cookie", cookie: nil, wantClaims: false},
		{name: "garbage token", cookie: &http.Cookie{Name: identity.TokenCookieName, Value: "garbage"}, wantClaims: false},
		{name: "wrong cookie name", cookie: &http.Cookie{Name: "session", Value: token}, wantClaims: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var claims *identity.UserClaims
			called := false
			handler := mw.ExtractUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				claims = identity.UserFromContext(r.Context())
			}))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			handler.ServeHTTP(httptest.NewRecorder(), r)

			if !called {
				t.Fatal("ExtractUser must always proceed to the next handler")
			}
			if tt.wantClaims && (claims == nil || claims.ID != 11) {
				t.Errorf("expected claims for user 11, got %+v", claims)
			}
			if !tt.wantClaims && claims != nil {
				t.Errorf("expected no claims, got %+v", claims)
			}
		})
	}
}

func TestEnsureUser(t *testing.T) {
	manager, _ := newTestSessionManager()
	mw := &identity.Middleware{Sessions: manager}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("without user", func(t *testing.T) {
		rr := httptest.NewRecorder()
		mw.EnsureUser(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("with user", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(identity.WithUser(r.Context(), &identity.UserClaims{ID: 5, Role: identity.RoleUser}))
		rr := httptest.NewRecorder()
		mw.EnsureUser(next).ServeHTTP(rr, r)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})
}

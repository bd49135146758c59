package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/chatloop/identity/oauth2"
)

// ErrInvalidCredentials is returned for every local login failure: unknown
// email, no password set, or mismatch. The causes are deliberately not
// distinguished so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// FederationError wraps a provider exchange failure so transport layers can
// distinguish it from store failures. The underlying error is preserved.
type FederationError struct {
	Provider string
	Err      error
}

func (e *FederationError) Error() string {
	return e.Provider + " federation failed: " + e.Err.Error()
}

func (e *FederationError) Unwrap() error { return e.Err }

// TokenCookieName is the cookie carrying the session token.
const TokenCookieName = "token"

// tokenCookieMaxAge is ~1 year, matching the session token validity window.
const tokenCookieMaxAge = 31540000

// AuthService coordinates the login flows: federated (GitHub, Google), local
// email/password, registration and logout. Every successful login persists a
// session and sets the token cookie on the response.
type AuthService struct {
	Users    UserStore
	Sessions *SessionManager
	Github   *oauth2.Github
	Google   *oauth2.Google

	// Production enables the Secure flag on issued cookies.
	Production bool

	// Metrics is optional; a nil collector records nothing.
	Metrics *Metrics
}

// GoogleAuthURL returns the provider authorization URL the frontend redirects
// the user to.
func (s *AuthService) GoogleAuthURL(state string) string {
	return s.Google.AuthURL(state)
}

// GithubAuth completes a GitHub login: code → profile, find-or-create the
// user by GitHub id, then start a session.
func (s *AuthService) GithubAuth(ctx context.Context, code string, w http.ResponseWriter, r *http.Request) (*User, error) {
	profile, err := s.Github.Exchange(ctx, code)
	if err != nil {
		s.Metrics.RecordLogin("github", "federation_error")
		return nil, &FederationError{Provider: "github", Err: err}
	}

	name := profile.DisplayName()
	user, err := s.findOrCreateFederated(ctx, federatedUser{
		providerID: strconv.FormatInt(profile.ID, 10),
		provider:   "github",
		name:       name,
		email:      profile.Email,
		avatar:     profile.AvatarURL,
		lookup:     s.Users.ByGithubID,
	})
	if err != nil {
		s.Metrics.RecordLogin("github", "error")
		return nil, err
	}
	if err := s.startSession(ctx, user, w, r); err != nil {
		return nil, err
	}
	s.Metrics.RecordLogin("github", "success")
	return user, nil
}

// GoogleAuth completes a Google login, mirroring the GitHub flow keyed on
// the Google subject id.
func (s *AuthService) GoogleAuth(ctx context.Context, code string, w http.ResponseWriter, r *http.Request) (*User, error) {
	profile, err := s.Google.Exchange(ctx, code)
	if err != nil {
		s.Metrics.RecordLogin("google", "federation_error")
		return nil, &FederationError{Provider: "google", Err: err}
	}

	user, err := s.findOrCreateFederated(ctx, federatedUser{
		providerID: profile.ID,
		provider:   "google",
		name:       profile.DisplayName(),
		email:      profile.Email,
		avatar:     profile.Picture,
		lookup:     s.Users.ByGoogleID,
	})
	if err != nil {
		s.Metrics.RecordLogin("google", "error")
		return nil, err
	}
	if err := s.startSession(ctx, user, w, r); err != nil {
		return nil, err
	}
	s.Metrics.RecordLogin("google", "success")
	return user, nil
}

// federatedUser carries the provider-independent shape of a federated login.
type federatedUser struct {
	providerID string
	provider   string
	name       string
	email      string
	avatar     string
	lookup     func(ctx context.Context, providerID string) (*User, error)
}

// findOrCreateFederated looks the user up by the provider's subject id. An
// existing user gets name, avatar and permalink refreshed (and email filled
// if previously absent); a first-time login creates an active USER with a
// fresh email verification token. Duplicate-key failures from concurrent
// first-time callbacks surface as ErrDuplicate; the store's unique indexes
// guarantee no duplicate row is created.
func (s *AuthService) findOrCreateFederated(ctx context.Context, fu federatedUser) (*User, error) {
	permalink := Permalink(fu.name)
	user, err := fu.lookup(ctx, fu.providerID)
	switch {
	case err == nil:
		update := UserUpdate{
			Name:      &fu.name,
			Avatar:    &fu.avatar,
			Permalink: &permalink,
		}
		if fu.email != "" && user.Email == "" {
			update.Email = &fu.email
		}
		return s.Users.Update(ctx, user.ID, update)
	case errors.Is(err, ErrNotFound):
		verification, err := GenerateRandomToken(32)
		if err != nil {
			return nil, err
		}
		user = &User{
			Name:                   fu.name,
			Email:                  fu.email,
			Avatar:                 fu.avatar,
			Permalink:              permalink,
			Active:                 true,
			Role:                   RoleUser,
			EmailVerificationToken: verification,
		}
		switch fu.provider {
		case "github":
			user.GithubID = fu.providerID
		case "google":
			user.GoogleID = fu.providerID
		}
		return s.Users.Create(ctx, user)
	default:
		return nil, err
	}
}

// SignIn performs a local email/password login. Unknown email, missing
// password hash and mismatch all collapse into ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, email, password string, w http.ResponseWriter, r *http.Request) (*User, error) {
	user, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.Metrics.RecordLogin("local", "rejected")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Password == "" || !VerifyPassword(user.Password, password) {
		s.Metrics.RecordLogin("local", "rejected")
		return nil, ErrInvalidCredentials
	}
	if err := s.startSession(ctx, user, w, r); err != nil {
		return nil, err
	}
	s.Metrics.RecordLogin("local", "success")
	return user, nil
}

// SignUp registers a local account. The account starts inactive with a
// generated email verification token; no session is created, the caller must
// sign in separately. Nothing checks the token or the active flag yet.
func (s *AuthService) SignUp(ctx context.Context, email, password, name string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	verification, err := GenerateRandomToken(32)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.Create(ctx, &User{
		Email:                  email,
		Password:               hash,
		Name:                   name,
		Permalink:              Permalink(name),
		EmailVerificationToken: verification,
		Active:                 false,
		Role:                   RoleUser,
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.RecordSignup()
	return user, nil
}

// Logout clears the token cookie. The backing session record is left in
// place: a token captured before logout still verifies until the record is
// deleted by housekeeping.
func (s *AuthService) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Production,
	})
}

// startSession persists a session with the caller's network metadata and
// sets the token cookie.
func (s *AuthService) startSession(ctx context.Context, user *User, w http.ResponseWriter, r *http.Request) error {
	token, err := s.Sessions.Create(ctx, clientIP(r), r.UserAgent(), user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   tokenCookieMaxAge,
		HttpOnly: true,
		Secure:   s.Production,
	})
	s.Metrics.RecordSessionIssued()
	slog.Info("session started", "userId", user.ID, "ip", clientIP(r))
	return nil
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

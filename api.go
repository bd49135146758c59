package identity

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// API exposes the caller-facing operations over HTTP. The auth routes mirror
// the frontend's needs: federated code callbacks, local sign in/up, logout,
// and the identity lookups gated behind authentication.
type API struct {
	Auth  *AuthService
	Users UserStore
}

// Handler builds the router with ExtractUser applied to every request.
func (a *API) Handler() http.Handler {
	mw := &Middleware{Sessions: a.Auth.Sessions}

	r := mux.NewRouter()
	r.Use(mw.ExtractUser)

	r.HandleFunc("/auth/google/url", a.handleGoogleAuthURL).Methods(http.MethodGet)
	r.HandleFunc("/auth/github", a.handleGithubAuth).Methods(http.MethodPost)
	r.HandleFunc("/auth/google", a.handleGoogleAuth).Methods(http.MethodPost)
	r.HandleFunc("/auth/signin", a.handleSignIn).Methods(http.MethodPost)
	r.HandleFunc("/auth/signup", a.handleSignUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", a.handleLogout).Methods(http.MethodPost)

	r.HandleFunc("/users", a.handleListUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/me", a.handleMe).Methods(http.MethodGet)
	r.Handle("/users/me", mw.EnsureUser(http.HandlerFunc(a.handleUpdateMe))).Methods(http.MethodPatch)
	r.HandleFunc("/users/{permalink}", a.handleUserByPermalink).Methods(http.MethodGet)

	return r
}

func (a *API) handleGoogleAuthURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"url": a.Auth.GoogleAuthURL(r.URL.Query().Get("state")),
	})
}

type codeInput struct {
	Code string `json:"code"`
}

func (a *API) handleGithubAuth(w http.ResponseWriter, r *http.Request) {
	var input codeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}
	user, err := a.Auth.GithubAuth(r.Context(), input.Code, w, r)
	if err != nil {
		a.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	var input codeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}
	user, err := a.Auth.GoogleAuth(r.Context(), input.Code, w, r)
	if err != nil {
		a.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Email == "" || input.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}
	user, err := a.Auth.SignIn(r.Context(), input.Email, input.Password, w, r)
	if err != nil {
		a.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Email == "" || input.Password == "" || input.Name == "" {
		writeError(w, http.StatusBadRequest, "email, password and name required")
		return
	}
	user, err := a.Auth.SignUp(r.Context(), input.Email, input.Password, input.Name)
	if err != nil {
		a.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.Auth.Logout(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.Users.All(r.Context())
	if err != nil {
		a.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleMe returns the authenticated caller's record, or JSON null when the
// request carries no valid session.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	user, err := a.Users.ByID(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		a.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateMe applies a partial update (email, name, bio) to the
// authenticated caller's record. EnsureUser guarantees the claims exist.
func (a *API) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email *string `json:"email"`
		Name  *string `json:"name"`
		Bio   *string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	claims := UserFromContext(r.Context())
	user, err := a.Users.Update(r.Context(), claims.ID, UserUpdate{
		Email: input.Email,
		Name:  input.Name,
		Bio:   input.Bio,
	})
	if err != nil {
		a.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleUserByPermalink(w http.ResponseWriter, r *http.Request) {
	permalink := mux.Vars(r)["permalink"]
	user, err := a.Users.ByPermalink(r.Context(), permalink)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		a.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) writeAuthError(w http.ResponseWriter, err error) {
	var federation *FederationError
	switch {
	case errors.As(err, &federation):
		slog.Warn("federation failure", "provider", federation.Provider, "err", federation.Err)
		writeError(w, http.StatusUnauthorized, federation.Error())
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrDuplicate):
		writeError(w, http.StatusConflict, "account already exists")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

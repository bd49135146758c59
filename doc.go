// Package identity implements authentication and sessions for the chatloop
// application: local email/password credentials plus GitHub and Google
// federated login.
//
// # Architecture
//
// User: the durable account record. Users are identified by a numeric id and
// carry a globally unique permalink derived from their display name.
//
// Sessions are hybrid: every successful login persists a revocable session
// row and hands the client a signed JWT embedding the session id and a
// {id, role} snapshot of the user. Verification checks the signature and
// expiry first (cheap, no store hit on rejection) and then confirms the
// session row still exists, so deleting the row revokes the token without
// any blacklist.
//
// # Basic Usage
//
// Open a store and wire the service:
//
//	db, _ := gormstore.Open("identity.db")
//	users := gormstore.NewUserStore(db)
//	sessions := &identity.SessionManager{
//	    Store:      gormstore.NewSessionStore(db),
//	    SigningKey: []byte(cfg.SigningKey),
//	}
//	auth := &identity.AuthService{
//	    Users:      users,
//	    Sessions:   sessions,
//	    Github:     oauth2.NewGithub(cfg.GithubClientID, cfg.GithubClientSecret, ""),
//	    Google:     oauth2.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL()),
//	    Production: cfg.Production(),
//	}
//
// Mount the HTTP surface:
//
//	api := &identity.API{Auth: auth, Users: users}
//	http.ListenAndServe(":3002", api.Handler())
//
// Expected failures never panic and never masquerade as errors:
// SessionManager.Verify returns nil for any bad token and login flows return
// ErrInvalidCredentials without revealing whether the email exists.
package identity

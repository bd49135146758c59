// Command identityd runs the identity service: the auth/session HTTP API
// plus a Prometheus metrics endpoint.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	identity "github.com/chatloop/identity"
	"github.com/chatloop/identity/oauth2"
	gormstore "github.com/chatloop/identity/stores/gorm"
)

func main() {
	cfg, err := identity.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if cfg.Production() && cfg.SigningKey == "insecure-dev-signing-key" {
		slog.Error("SIGNING_KEY must be set in production")
		os.Exit(1)
	}

	db, err := gormstore.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open store", "err", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	users := gormstore.NewUserStore(db)
	auth := &identity.AuthService{
		Users: users,
		Sessions: &identity.SessionManager{
			Store:      gormstore.NewSessionStore(db),
			SigningKey: []byte(cfg.SigningKey),
		},
		Github:     oauth2.NewGithub(cfg.GithubClientID, cfg.GithubClientSecret, ""),
		Google:     oauth2.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL()),
		Production: cfg.Production(),
		Metrics:    identity.NewMetrics(registry),
	}
	api := &identity.API{Auth: auth, Users: users}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", api.Handler())

	slog.Info("identity service listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
	if err := http.ListenAndServe(cfg.HTTPAddr, mux); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

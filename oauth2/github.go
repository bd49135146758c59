package oauth2

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GithubProfile is the subset of GitHub's user response we consume. It is
// transient; the auth flows copy it into a user record and drop it.
type GithubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// DisplayName prefers the profile name and falls back to the login handle.
func (p *GithubProfile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Login
}

// Github exchanges authorization codes against GitHub.
type Github struct {
	Provider
}

func NewGithub(clientID, clientSecret, callbackURL string) *Github {
	if clientID == "" {
		clientID = strings.TrimSpace(os.Getenv("GITHUB_CLIENT_ID"))
	}
	if clientSecret == "" {
		clientSecret = strings.TrimSpace(os.Getenv("GITHUB_CLIENT_SECRET"))
	}
	return &Github{
		Provider: Provider{
			Config: oauth2.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURL:  callbackURL,
				Scopes:       []string{"read:user", "user:email"},
				Endpoint:     github.Endpoint,
			},
			UserInfoURL: "https://api.github.com/user",
		},
	}
}

// Exchange trades the authorization code for an access token and fetches the
// user's profile with it.
func (g *Github) Exchange(ctx context.Context, code string) (*GithubProfile, error) {
	token, err := g.Config.Exchange(g.exchangeContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("github: code exchange failed: %w", err)
	}
	var profile GithubProfile
	if err := g.fetchProfile(ctx, g.UserInfoURL, token.AccessToken, &profile); err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}
	return &profile, nil
}

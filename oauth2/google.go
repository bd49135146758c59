package oauth2

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// GoogleProfile is the subset of Google's userinfo response we consume.
type GoogleProfile struct {
	ID         string `json:"id"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Picture    string `json:"picture"`
}

// DisplayName joins the given and family names.
func (p *GoogleProfile) DisplayName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

// Google exchanges authorization codes against Google. Unlike GitHub, the
// token response carries a companion id_token which authenticates the
// userinfo fetch.
type Google struct {
	Provider
}

func NewGoogle(clientID, clientSecret, callbackURL string) *Google {
	if clientID == "" {
		clientID = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	}
	if clientSecret == "" {
		clientSecret = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET"))
	}
	return &Google{
		Provider: Provider{
			Config: oauth2.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURL:  callbackURL,
				Scopes: []string{
					"https://www.googleapis.com/auth/userinfo.profile",
					"https://www.googleapis.com/auth/userinfo.email",
				},
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
					TokenURL: "https://oauth2.googleapis.com/token",
				},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v1/userinfo",
		},
	}
}

// AuthURL builds the authorization endpoint URL with client_id,
// redirect_uri, response_type=code and the space-joined scope list.
func (g *Google) AuthURL(state string) string {
	return g.Config.AuthCodeURL(state)
}

// Exchange trades the authorization code for an access token and id token,
// then fetches the user's profile. A token response without an id_token is a
// federation failure.
func (g *Google) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	token, err := g.Config.Exchange(g.exchangeContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("google: code exchange failed: %w", err)
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, fmt.Errorf("google: token response missing id_token")
	}

	infoURL := fmt.Sprintf("%s?alt=json&access_token=%s", g.UserInfoURL, url.QueryEscape(token.AccessToken))
	var profile GoogleProfile
	if err := g.fetchProfile(ctx, infoURL, idToken, &profile); err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	return &profile, nil
}

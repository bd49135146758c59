// Package oauth2 performs the authorization-code-to-profile exchange against
// the external identity providers (GitHub and Google). Each provider runs the
// same two-step flow: exchange the code for an access token at the token
// endpoint, then fetch the user's profile from the user-info endpoint with a
// bearer header. Any non-success response, malformed JSON, or missing token
// field surfaces immediately as an error; no retries are attempted.
package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// Provider holds the pieces shared by both federated providers.
type Provider struct {
	Config oauth2.Config

	// UserInfoURL is the URL to fetch the profile from. Defaults to the
	// provider's API and can be overridden for testing.
	UserInfoURL string

	// HTTPClient is used for the exchange and the profile fetch.
	// Defaults to http.DefaultClient. Injectable for testing.
	HTTPClient *http.Client
}

func (p *Provider) httpClient() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

// exchangeContext returns ctx with the injectable HTTP client attached so
// oauth2.Config.Exchange uses it.
func (p *Provider) exchangeContext(ctx context.Context) context.Context {
	if p.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
}

// fetchProfile GETs url with a bearer authorization header and decodes the
// JSON response into out.
func (p *Provider) fetchProfile(ctx context.Context, url, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	response, err := p.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed getting user info: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("user info request failed: %s", response.Status)
	}
	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(contents, out); err != nil {
		return fmt.Errorf("failed to parse user info: %w", err)
	}
	return nil
}

package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2Config builds the authorization-code flow configuration for this
// issuer, used by embedding servers that drive the code exchange
// themselves (e.g. BFF deployments holding tokens server-side).
func (c *Config) OAuth2Config(redirectURL string, scopes ...string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthorizationEndpoint,
			TokenURL: c.TokenEndpoint,
		},
	}
}

// Exchange swaps an authorization code for a token at the issuer.
func (c *Config) Exchange(ctx context.Context, redirectURL, code string, options ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	if c.TokenEndpoint == "" {
		return nil, fmt.Errorf("token endpoint is not configured")
	}
	token, err := c.OAuth2Config(redirectURL).Exchange(ctx, code, options...)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return token, nil
}

// ClientCredentialsSource returns a token source for this server's own
// upstream calls (introspection, dynamic registration) using the
// client-credentials grant.
func (c *Config) ClientCredentialsSource(ctx context.Context, scopes ...string) oauth2.TokenSource {
	cfg := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenEndpoint,
		Scopes:       scopes,
	}
	return cfg.TokenSource(ctx)
}

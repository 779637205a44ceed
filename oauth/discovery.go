package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// discoveryDocument is the subset of the OpenID Connect discovery response
// this runtime consumes.
type discoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	IntrospectionEndpoint string `json:"introspection_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
	RegistrationEndpoint  string `json:"registration_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
}

const discoveryPath = "/.well-known/openid-configuration"

var discoveryClient = &http.Client{Timeout: 30 * time.Second}

// Discover populates missing endpoint fields from the issuer's
// /.well-known/openid-configuration document. Fields already set are left
// untouched so explicit configuration always wins.
func (c *Config) Discover(ctx context.Context) error {
	if c.Issuer == "" {
		return fmt.Errorf("oauth discovery requires an issuer")
	}
	endpoint := strings.TrimSuffix(c.Issuer, "/") + discoveryPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create discovery request: %w", err)
	}
	resp, err := discoveryClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discovery %s returned %d: %s", endpoint, resp.StatusCode, body)
	}
	document := &discoveryDocument{}
	if err := json.NewDecoder(resp.Body).Decode(document); err != nil {
		return fmt.Errorf("failed to decode discovery document: %w", err)
	}
	if c.AuthorizationEndpoint == "" {
		c.AuthorizationEndpoint = document.AuthorizationEndpoint
	}
	if c.TokenEndpoint == "" {
		c.TokenEndpoint = document.TokenEndpoint
	}
	if c.IntrospectionEndpoint == "" {
		c.IntrospectionEndpoint = document.IntrospectionEndpoint
	}
	if c.JWKSEndpoint == "" {
		c.JWKSEndpoint = document.JWKSURI
	}
	if c.RegistrationEndpoint == "" {
		c.RegistrationEndpoint = document.RegistrationEndpoint
	}
	if c.UserInfoEndpoint == "" {
		c.UserInfoEndpoint = document.UserInfoEndpoint
	}
	return nil
}

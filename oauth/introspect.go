package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// IntrospectionResult is the RFC 7662 response shape.
type IntrospectionResult struct {
	Active   bool   `json:"active"`
	Subject  string `json:"sub,omitempty"`
	Scope    string `json:"scope,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Exp      int64  `json:"exp,omitempty"`
}

// IntrospectionValidator authorizes tokens against the issuer's
// introspection endpoint with the configured client credentials; an
// alternative to local JWT validation for opaque tokens.
func IntrospectionValidator(config *Config) TokenValidator {
	client := &http.Client{Timeout: 30 * time.Second}
	return func(ctx context.Context, token string) error {
		result, err := introspect(ctx, client, config, token)
		if err != nil {
			return NewUnauthorized(err)
		}
		if !result.Active {
			return NewUnauthorized(ErrExpired)
		}
		return nil
	}
}

func introspect(ctx context.Context, client *http.Client, config *Config, token string) (*IntrospectionResult, error) {
	if config.IntrospectionEndpoint == "" {
		return nil, fmt.Errorf("introspection endpoint is not configured")
	}
	form := url.Values{}
	form.Set("token", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.IntrospectionEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if config.ClientID != "" {
		req.SetBasicAuth(config.ClientID, config.ClientSecret)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspection request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("introspection returned %d: %s", resp.StatusCode, body)
	}
	result := &IntrospectionResult{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("failed to decode introspection response: %w", err)
	}
	return result, nil
}

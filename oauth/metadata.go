package oauth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// AuthorizationServerMetadata is the RFC 8414 discovery document served on
// /.well-known/oauth-authorization-server.
type AuthorizationServerMetadata struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	RegistrationEndpoint          string   `json:"registration_endpoint,omitempty"`
	JWKSURI                       string   `json:"jwks_uri,omitempty"`
	IntrospectionEndpoint         string   `json:"introspection_endpoint,omitempty"`
	ResponseTypesSupported        []string `json:"response_types_supported"`
	GrantTypesSupported           []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
}

// ProtectedResourceMetadata is the RFC 9728 document served on
// /.well-known/oauth-protected-resource.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
}

// ServerMetadata renders the AS metadata document. In transparent-proxy
// mode the local base URL replaces the upstream issuer, authorization,
// token and JWKS endpoints (and the registration endpoint when one is
// configured) so the client targets the proxy; the introspection endpoint
// keeps its upstream value.
func (c *Config) ServerMetadata(baseURL string) *AuthorizationServerMetadata {
	metadata := &AuthorizationServerMetadata{
		Issuer:                        c.Issuer,
		AuthorizationEndpoint:         c.AuthorizationEndpoint,
		TokenEndpoint:                 c.TokenEndpoint,
		RegistrationEndpoint:          c.RegistrationEndpoint,
		JWKSURI:                       c.JWKSEndpoint,
		IntrospectionEndpoint:         c.IntrospectionEndpoint,
		ResponseTypesSupported:        []string{"code"},
		GrantTypesSupported:           []string{"authorization_code", "refresh_token"},
		CodeChallengeMethodsSupported: []string{"S256"},
	}
	if c.TransparentProxy && baseURL != "" {
		base := strings.TrimSuffix(baseURL, "/")
		metadata.Issuer = base
		metadata.AuthorizationEndpoint = base + "/authorize"
		metadata.TokenEndpoint = base + "/oauth/token"
		if c.RegistrationEndpoint != "" {
			metadata.RegistrationEndpoint = base + "/oauth/register"
		}
		metadata.JWKSURI = base + "/.well-known/jwks.json"
	}
	return metadata
}

// ResourceMetadata renders the protected-resource metadata document.
func (c *Config) ResourceMetadata(baseURL string) *ProtectedResourceMetadata {
	base := strings.TrimSuffix(baseURL, "/")
	authorizationServer := c.Issuer
	if c.TransparentProxy && base != "" {
		authorizationServer = base
	}
	return &ProtectedResourceMetadata{
		Resource:               base,
		AuthorizationServers:   []string{authorizationServer},
		BearerMethodsSupported: []string{"header"},
	}
}

// WriteJSON renders v as a JSON response body.
func WriteJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(v)
}

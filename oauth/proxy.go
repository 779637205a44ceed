package oauth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/mcpsession"
)

// sessionHeaderKey is the header the MCP transports round-trip the session
// id in; the proxy uses it to bind freshly minted tokens onto a session.
const sessionHeaderKey = "Mcp-Session-Id"

// Proxy is the transparent OAuth proxy: it forwards the authorization
// surface of the upstream issuer through this server so authorization
// codes and tokens round-trip via the local origin. Redirects are never
// followed locally; the client must see them.
type Proxy struct {
	Config   *Config
	Sessions *mcpsession.Store
	Logger   jsonrpc.Logger
	client   *http.Client
}

// NewProxy creates a transparent proxy for config, binding issued tokens
// onto sessions when sessions is non-nil.
func NewProxy(config *Config, sessions *mcpsession.Store) *Proxy {
	return &Proxy{
		Config:   config,
		Sessions: sessions,
		Logger:   jsonrpc.DefaultLogger,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Handles reports whether path belongs to the proxied OAuth surface.
func (p *Proxy) Handles(path string) bool {
	switch {
	case path == "/authorize",
		path == "/userinfo",
		path == "/.well-known/jwks.json",
		path == "/.well-known/openid-configuration":
		return true
	case strings.HasPrefix(path, "/oauth/"):
		return true
	}
	return false
}

// ServeHTTP forwards the request to the upstream issuer and relays the
// response with hop-by-hop, forwarding and CORS headers stripped.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upstream := p.upstreamURL(r)
	var body io.Reader
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
			return
		}
		_ = r.Body.Close()
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, upstream, body)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to create upstream request: %v", err), http.StatusBadGateway)
		return
	}
	copyRequestHeaders(req.Header, r.Header)

	resp, err := p.client.Do(req)
	if err != nil {
		http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read upstream response: %v", err), http.StatusBadGateway)
		return
	}

	p.bindToken(r, responseBody)

	headers := w.Header()
	for name, values := range resp.Header {
		if stripResponseHeader(name) {
			continue
		}
		for _, value := range values {
			headers.Add(name, value)
		}
	}
	if location := resp.Header.Get("Location"); location != "" {
		headers.Set("Location", p.absoluteLocation(location))
	}

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(responseBody)
}

// upstreamURL maps the local request path+query onto the issuer origin.
func (p *Proxy) upstreamURL(r *http.Request) string {
	target := url.Join(strings.TrimSuffix(p.Config.Issuer, "/"), r.URL.Path)
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}

// absoluteLocation rewrites an upstream-relative Location header to an
// upstream-absolute URL so the client follows the redirect at the issuer,
// not at this proxy.
func (p *Proxy) absoluteLocation(location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	return url.Join(strings.TrimSuffix(p.Config.Issuer, "/"), location)
}

// tokenResponse is the subset of an /oauth/token response the proxy binds
// onto the requesting session.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// bindToken stores a freshly issued access token on the session named by
// the request's Mcp-Session-Id header, so subsequent bearer requests can
// be matched by SessionForToken.
func (p *Proxy) bindToken(r *http.Request, responseBody []byte) {
	if p.Sessions == nil || !strings.HasSuffix(r.URL.Path, "/token") {
		return
	}
	sessionID := r.Header.Get(sessionHeaderKey)
	if sessionID == "" {
		return
	}
	token := &tokenResponse{}
	if err := json.Unmarshal(responseBody, token); err != nil || token.AccessToken == "" {
		return
	}
	sess, ok := p.Sessions.Get(sessionID)
	if !ok {
		return
	}
	var expiry time.Time
	if token.ExpiresIn > 0 {
		expiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	sess.SetToken(token.AccessToken, token.IDToken, expiry, sess.UserInfo)
}

// copyRequestHeaders forwards client headers upstream minus the ones the
// proxy owns (host routing, connection management, forwarding metadata).
func copyRequestHeaders(dest, src http.Header) {
	for name, values := range src {
		if stripRequestHeader(name) {
			continue
		}
		for _, value := range values {
			dest.Add(name, value)
		}
	}
}

func stripRequestHeader(name string) bool {
	lower := strings.ToLower(name)
	switch lower {
	case "host", "content-length", "connection":
		return true
	}
	return strings.HasPrefix(lower, "x-forwarded-")
}

// stripResponseHeader drops headers the local server re-derives: hop-by-hop
// and forwarding headers, CORS headers (the MCP routes set their own), and
// content-encoding since the HTTP client already decoded the payload.
func stripResponseHeader(name string) bool {
	lower := strings.ToLower(name)
	switch lower {
	case "host", "content-length", "connection", "content-encoding", "location":
		return true
	}
	if strings.HasPrefix(lower, "x-forwarded-") {
		return true
	}
	return strings.HasPrefix(lower, "access-control-")
}

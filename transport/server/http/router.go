package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/viant/mcprt"
	"github.com/viant/mcprt/dispatch"
	"github.com/viant/mcprt/oauth"
	"github.com/viant/mcprt/transport"
	"github.com/viant/mcprt/transport/server/http/sse"
	"github.com/viant/mcprt/transport/server/http/streamable"
)

// Router is the full HTTP surface of an MCP server: both MCP transport
// variants, the OAuth metadata and transparent-proxy routes, the OpenAPI
// tool routes, CORS preflight and the keep-alive timer. Token validation
// gates every MCP entry point ahead of dispatch.
type Router struct {
	// PluginCallbackID identifies the server to the OpenAI plugin
	// callback; it must be supplied by configuration.
	PluginCallbackID string

	dispatcher *dispatch.Dispatcher
	sse        *sse.Handler
	streamable *streamable.Handler
	oauthCfg   *oauth.Config
	proxy      *oauth.Proxy
	validator  oauth.TokenValidator
	keepAlive  *KeepAlive
	logger     jsonrpc.Logger
}

// RouterOption mutates Router construction.
type RouterOption func(*routerConfig)

type routerConfig struct {
	pluginCallbackID  string
	oauthCfg          *oauth.Config
	keepAliveMode     KeepAliveMode
	keepAlivePeriod   int
	sseOptions        []sse.Option
	streamableOptions []streamable.Option
}

// WithOAuth enables the OAuth subsystem: metadata endpoints, the
// transparent proxy when cfg.TransparentProxy is set, and the token
// validation gate (cfg.Validator, or the default JWT validator when a
// JWKS endpoint is known).
func WithOAuth(cfg *oauth.Config) RouterOption {
	return func(r *routerConfig) { r.oauthCfg = cfg }
}

// WithPluginCallbackID sets the OpenAI plugin callback id.
func WithPluginCallbackID(id string) RouterOption {
	return func(r *routerConfig) { r.pluginCallbackID = id }
}

// WithKeepAlive sets keep-alive mode and period in seconds (zero keeps
// the 30s default).
func WithKeepAlive(mode KeepAliveMode, periodSeconds int) RouterOption {
	return func(r *routerConfig) {
		r.keepAliveMode = mode
		r.keepAlivePeriod = periodSeconds
	}
}

// WithSSEOptions passes options through to the legacy SSE handler.
func WithSSEOptions(options ...sse.Option) RouterOption {
	return func(r *routerConfig) { r.sseOptions = append(r.sseOptions, options...) }
}

// WithStreamableOptions passes options through to the streamable handler.
func WithStreamableOptions(options ...streamable.Option) RouterOption {
	return func(r *routerConfig) { r.streamableOptions = append(r.streamableOptions, options...) }
}

// NewRouter wires dispatcher behind the full MCP HTTP surface.
func NewRouter(dispatcher *dispatch.Dispatcher, options ...RouterOption) *Router {
	cfg := &routerConfig{}
	for _, option := range options {
		option(cfg)
	}
	newHandler := func(ctx context.Context, _ transport.Transport) transport.Handler {
		return dispatcher
	}
	ret := &Router{
		PluginCallbackID: cfg.pluginCallbackID,
		dispatcher:       dispatcher,
		sse:              sse.New(newHandler, cfg.sseOptions...),
		streamable:       streamable.New(newHandler, append([]streamable.Option{streamable.WithURI("/mcp")}, cfg.streamableOptions...)...),
		oauthCfg:         cfg.oauthCfg,
		logger:           jsonrpc.DefaultLogger,
	}
	if cfg.oauthCfg != nil {
		ret.validator = cfg.oauthCfg.Validator
		if ret.validator == nil && cfg.oauthCfg.JWKSEndpoint != "" {
			ret.validator = oauth.NewValidator(cfg.oauthCfg).AsTokenValidator()
		}
		if cfg.oauthCfg.TransparentProxy {
			ret.proxy = oauth.NewProxy(cfg.oauthCfg, dispatcher.Sessions)
		}
	}
	ret.keepAlive = NewKeepAlive(cfg.keepAliveMode, time.Duration(cfg.keepAlivePeriod)*time.Second,
		ret.sse.SessionStore(), ret.streamable.SessionStore())
	ret.keepAlive.Start()
	return ret
}

// Close stops the keep-alive timer and the streamable sweeper.
func (r *Router) Close() {
	r.keepAlive.Stop()
	r.streamable.Close()
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, request *http.Request) {
	if request.Method == http.MethodOptions {
		r.handlePreflight(w)
		return
	}
	path := request.URL.Path
	switch path {
	case "/.well-known/oauth-authorization-server":
		r.handleServerMetadata(w, request)
		return
	case "/.well-known/oauth-protected-resource":
		r.handleResourceMetadata(w, request)
		return
	case "/.well-known/ai-plugin.json":
		r.handlePluginManifest(w, request)
		return
	case "/openapi.json":
		r.handleOpenAPISpec(w, request)
		return
	}
	if r.proxy != nil && r.proxy.Handles(path) {
		r.proxy.ServeHTTP(w, request)
		return
	}
	if strings.HasSuffix(path, "/mcp") {
		if !r.authorize(w, request) {
			return
		}
		r.streamable.ServeHTTP(w, request)
		return
	}
	if strings.HasSuffix(path, "/sse") || strings.Contains(path, "/messages/") {
		if !r.authorize(w, request) {
			return
		}
		r.sse.ServeHTTP(w, request)
		return
	}
	if toolName, ok := r.toolCallPath(path); ok {
		if !r.authorize(w, request) {
			return
		}
		r.handleToolCall(w, request, toolName)
		return
	}
	http.NotFound(w, request)
}

// handlePreflight answers the CORS preflight with the union of methods and
// headers the MCP and OAuth routes expect.
func (r *Router) handlePreflight(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Access-Control-Allow-Origin", "*")
	headers.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, MCP-Protocol-Version")
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleServerMetadata(w http.ResponseWriter, request *http.Request) {
	if r.oauthCfg == nil {
		http.NotFound(w, request)
		return
	}
	oauth.WriteJSON(w, r.oauthCfg.ServerMetadata(requestBaseURL(request)))
}

func (r *Router) handleResourceMetadata(w http.ResponseWriter, request *http.Request) {
	if r.oauthCfg == nil {
		http.NotFound(w, request)
		return
	}
	oauth.WriteJSON(w, r.oauthCfg.ResourceMetadata(requestBaseURL(request)))
}

// authorize gates a request with the configured token validator; a failure
// is rendered as a 401 whose body is the JSON-RPC unauthorized envelope
// (as an SSE event when the request negotiated an event stream).
func (r *Router) authorize(w http.ResponseWriter, request *http.Request) bool {
	if r.validator == nil {
		return true
	}
	token := bearerToken(request)
	var err error
	if token == "" {
		err = fmt.Errorf("missing bearer token")
	} else {
		err = r.validator(request.Context(), token)
	}
	if err == nil {
		return true
	}
	rendered := err.Error()
	if !strings.HasPrefix(rendered, "Unauthorized:") {
		rendered = "Unauthorized: " + rendered
	}
	message, _ := json.Marshal(rendered)
	body := fmt.Sprintf(`{"jsonrpc":"2.0","error":{"code":401,"message":%s}}`, message)
	if strings.Contains(request.Header.Get("Accept"), "text/event-stream") {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprintf(w, "event: message\ndata: %s\n\n", body)
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(body))
	return false
}

func bearerToken(request *http.Request) string {
	authorization := request.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	const prefix = "bearer "
	if len(authorization) > len(prefix) && strings.EqualFold(authorization[:len(prefix)], prefix) {
		return strings.TrimSpace(authorization[len(prefix):])
	}
	return ""
}

package streamable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/transport"
	"github.com/viant/mcprt/transport/server/base"
	"github.com/viant/mcprt/transport/server/http/common"
	"github.com/viant/mcprt/transport/server/http/session"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Default values following the MCP spec.
const (
	defaultURI = ""
	// default header name for session id; may be overridden via Options.SessionLocation
	defaultSessionHeaderKey = "Mcp-Session-Id"
	sseMime                 = "text/event-stream"
)

// Handler implements server-side of Streamable-HTTP transport (Model Context Protocol).
// Single endpoint (URI) is used for handshake, message exchange and streaming.
// Operation mode is distinguished by HTTP method and Accept header value.
type Handler struct {
	Options
	base       *base.Handler
	locator    session.Locator
	newHandler transport.NewHandler
	options    []base.Option

	stopOnce sync.Once
	stopCh   chan struct{}
}

// ServeHTTP implements http.Handler.
// POST (no session header) – handshake creates a session, returns session id in header.
// POST (with Mcp-Session-Id) – JSON-RPC message for the session; response returned sync.
// GET  (with Accept: text/event-stream & Mcp-Session-Id) – opens long-lived streaming connection.
// DELETE (with Mcp-Session-Id) – terminates session.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.URI != "" && !strings.HasSuffix(r.URL.Path, h.URI) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")

	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, MCP-Protocol-Version, "+defaultSessionHeaderKey)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPost:
		h.handlePOST(w, r)
	case http.MethodGet:
		h.handleGET(w, r)
	case http.MethodDelete:
		h.handleDELETE(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePOST(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := h.locator.Locate(h.SessionLocation, r)
	if sessionID == "" {
		h.initHandshake(w, r)
		return
	}
	h.handleMessage(w, r, sessionID)
}

func (h *Handler) handleGET(w http.ResponseWriter, r *http.Request) {
	if !acceptsSSE(r.Header) {
		http.Error(w, "SSE not supported on this endpoint", http.StatusMethodNotAllowed)
		return
	}
	sessionID, _ := h.locator.Locate(h.SessionLocation, r)
	if sessionID == "" {
		sessionID = r.URL.Query().Get(h.SessionLocation.Name)
	}
	if sessionID == "" {
		http.Error(w, fmt.Sprintf("missing %s", h.SessionLocation.Name), http.StatusBadRequest)
		return
	}

	aSession, ok := h.base.Sessions.Get(sessionID)
	if !ok {
		http.Error(w, fmt.Sprintf("session '%s' not found", sessionID), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", sseMime)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	writer := common.NewFlushWriter(w)
	aSession.MarkActiveWithWriter(writer)
	base.WithFramer(frameSSE)(aSession)
	base.WithEventBuffer(h.maxEventBuffer())(aSession)
	base.WithSSE()(aSession)

	// Support resumability: replay events after Last-Event-ID if provided
	if last := strings.TrimSpace(r.Header.Get("Last-Event-ID")); last != "" {
		if v, err := strconv.ParseUint(last, 10, 64); err == nil {
			if msgs := aSession.EventsAfter(v); len(msgs) > 0 {
				for _, m := range msgs {
					_, _ = aSession.Writer.Write(m)
				}
			}
		}
	}

	<-r.Context().Done()
	h.onStreamDisconnect(aSession)
}

// onStreamDisconnect handles loss of the SSE GET connection according to
// the configured RemovalPolicy: RemovalOnDisconnect deletes the session
// outright (default, legacy behavior); any other policy marks it detached
// so the sweeper (or an immediate reconnect) decides its fate.
func (h *Handler) onStreamDisconnect(aSession *base.Session) {
	if h.RemovalPolicy == base.RemovalOnDisconnect {
		h.removeSession(aSession.Id)
		return
	}
	aSession.MarkDetached()
}

func (h *Handler) handleDELETE(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := h.locator.Locate(h.SessionLocation, r)
	if sessionID == "" {
		http.Error(w, fmt.Sprintf("missing %s", h.SessionLocation.Name), http.StatusBadRequest)
		return
	}
	h.removeSession(sessionID)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) removeSession(id string) {
	if aSession, ok := h.base.Sessions.Get(id); ok {
		if h.OnSessionClose != nil {
			h.OnSessionClose(aSession)
		}
	}
	h.base.Sessions.Delete(id)
}

// initHandshake creates a new session and returns its id in response header.
// When RehydrateOnHandshake is enabled and the request carries a BFF auth
// cookie resolving to a live grant, the grant's last-used time is refreshed;
// the new MCP session is not bound to the grant's subject.
func (h *Handler) initHandshake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	aSession := base.NewSession(ctx, "", io.Discard, h.newHandler)
	base.WithEventBuffer(h.maxEventBuffer())(aSession)

	if h.RehydrateOnHandshake && h.AuthStore != nil && h.AuthCookie != nil {
		if c, err := r.Cookie(h.AuthCookie.Name); err == nil && c.Value != "" {
			if grant, err := h.AuthStore.Get(ctx, c.Value); err == nil {
				_ = h.AuthStore.Touch(ctx, grant.ID, time.Now())
			}
		}
	}

	h.base.Sessions.Put(aSession.Id, aSession)
	if h.SessionLocation != nil && h.SessionLocation.Kind == session.KindHeader {
		w.Header().Set(h.SessionLocation.Name, aSession.Id)
	} else {
		w.Header().Set(defaultSessionHeaderKey, aSession.Id)
	}
	h.handleMessage(w, r, aSession.Id)
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request, sessionID string) {
	aSession, ok := h.base.Sessions.Get(sessionID)
	if !ok {
		http.Error(w, fmt.Sprintf("session '%s' not found", sessionID), http.StatusNotFound)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
		return
	}
	_ = r.Body.Close()

	ctx := context.WithValue(r.Context(), jsonrpc.SessionKey, aSession)

	// If client accepts SSE, and this is a JSON-RPC request, stream via SSE.
	if acceptsSSE(r.Header) && isJSONRPCRequest(data) && hasID(data) {
		w.Header().Set("Content-Type", sseMime)
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		aSession.Writer = common.NewFlushWriter(w)
		base.WithFramer(frameSSE)(aSession)
		base.WithEventBuffer(h.maxEventBuffer())(aSession)
		base.WithSSE()(aSession)
		h.base.HandleMessage(ctx, aSession, data, nil)
		return
	}

	// Default: synchronous JSON response or 202 Accepted for notifications
	buffer := bytes.Buffer{}
	h.base.HandleMessage(ctx, aSession, data, &buffer)
	if h.SessionLocation != nil && h.SessionLocation.Kind == session.KindHeader {
		w.Header().Set(h.SessionLocation.Name, aSession.Id)
	} else {
		w.Header().Set(defaultSessionHeaderKey, aSession.Id)
	}
	if buffer.Len() == 0 { // notification (no response)
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buffer.Bytes())
}

func (h *Handler) maxEventBuffer() int {
	if h.MaxEventBuffer > 0 {
		return h.MaxEventBuffer
	}
	return 1024
}

// SessionStore exposes the handler's session table so an outer router can
// run shared services (keep-alive, sweepers) over every live session.
func (h *Handler) SessionStore() base.SessionStore {
	return h.base.Sessions
}

// Close stops the lifecycle sweeper goroutine, if one is running.
func (h *Handler) Close() {
	h.stopOnce.Do(func() {
		if h.stopCh != nil {
			close(h.stopCh)
		}
	})
}

// runSweeper enforces IdleTTL, MaxLifetime, and ReconnectGrace against every
// tracked session on a fixed tick, per the configured RemovalPolicy.
func (h *Handler) runSweeper() {
	ticker := time.NewTicker(h.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			var expired []string
			h.base.Sessions.Range(func(id string, s *base.Session) bool {
				if h.MaxLifetime > 0 && now.Sub(s.CreatedAt) > h.MaxLifetime {
					expired = append(expired, id)
					return true
				}
				switch h.RemovalPolicy {
				case base.RemovalAfterGrace:
					if s.State == base.SessionStateDetached && s.DetachedAt != nil && now.Sub(*s.DetachedAt) > h.ReconnectGrace {
						expired = append(expired, id)
					}
				case base.RemovalAfterIdle:
					if h.IdleTTL > 0 && now.Sub(s.LastSeen) > h.IdleTTL {
						expired = append(expired, id)
					}
				}
				return true
			})
			for _, id := range expired {
				h.removeSession(id)
			}
		}
	}
}

// Helper – checks if Accept header contains text/event-stream
func acceptsSSE(hdr http.Header) bool {
	for _, v := range hdr.Values("Accept") {
		if strings.Contains(v, sseMime) {
			return true
		}
	}
	return false
}

// isJSONRPCRequest returns true if data looks like a JSON-RPC request (has method and optional id)
func isJSONRPCRequest(data []byte) bool {
	var tmp struct {
		Method string          `json:"method"`
		ID     json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return false
	}
	return tmp.Method != ""
}

// hasID returns true if the JSON has a non-null id field
func hasID(data []byte) bool {
	var tmp struct {
		ID *json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return false
	}
	return tmp.ID != nil
}

// New constructs Handler with default settings and provided options.
func New(newHandler transport.NewHandler, opts ...Option) *Handler {
	h := &Handler{
		newHandler: newHandler,
		Options: Options{
			URI:             defaultURI,
			SessionLocation: session.NewHeaderLocation(defaultSessionHeaderKey),
		},
		base:    base.NewHandler(),
		locator: session.NewDefaultLocator(),
		options: []base.Option{
			base.WithFramer(frameJSON),
		},
		stopCh: make(chan struct{}),
	}
	for _, o := range opts {
		o(&h.Options)
	}
	if h.Store != nil {
		h.base = base.NewHandlerWithStore(h.Store)
	}
	if h.CleanupInterval > 0 {
		go h.runSweeper()
	}
	return h
}

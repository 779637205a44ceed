package sse

import (
	"bytes"
	"context"
	"fmt"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/transport"
	"github.com/viant/mcprt/transport/server/base"
	"github.com/viant/mcprt/transport/server/http/common"
	"github.com/viant/mcprt/transport/server/http/session"
	"io"
	"net/http"
	"strings"
)

// Handler implements the legacy HTTP+SSE transport: GET /sse opens the
// event stream and advertises a per-session POST endpoint via an
// "endpoint" event; POST /messages/{session-id} carries JSON-RPC messages
// whose responses are streamed back on the SSE channel.
type Handler struct {
	Options
	base       *base.Handler
	locator    session.Locator
	newHandler transport.NewHandler
	options    []base.Option
}

// ServeHTTP implements the http.Handler interface.
func (s *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, s.URI) {
		s.handleSSE(w, r)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		if sessionId, _ := s.locator.Locate(s.SessionLocation, r); sessionId != "" {
			s.base.Sessions.Delete(sessionId)
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPost:
		s.handleMessage(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMessage handles a POST to /messages/{session-id}. The server
// replies 202 Accepted to the POST body itself; any JSON-RPC response is
// written asynchronously as a "data:" event on the session's SSE channel.
func (s *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var data []byte
	var err error
	if r.Body != nil {
		if data, err = io.ReadAll(r.Body); err != nil {
			http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
			return
		}
		r.Body.Close()
	}

	sessionId, err := s.locator.Locate(s.SessionLocation, r)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to locate session: %v", err), http.StatusBadRequest)
		return
	}
	if sessionId == "" {
		http.Error(w, fmt.Sprintf("missing session id in %s", s.SessionLocation.Name), http.StatusBadRequest)
		return
	}
	aSession, ok := s.base.Sessions.Get(sessionId)
	if !ok {
		http.Error(w, fmt.Sprintf("session '%s' not found", sessionId), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusAccepted)

	ctx := context.WithValue(r.Context(), jsonrpc.SessionKey, aSession)
	var buffer bytes.Buffer
	s.base.HandleMessage(ctx, aSession, data, &buffer)
	if buffer.Len() == 0 {
		return // pure notification, nothing to stream back
	}
	aSession.SendData(ctx, buffer.Bytes())
}

// handleSSE handles Server-Sent Events (SSE) bootstrap on GET /sse.
func (s *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	writer := common.NewFlushWriter(w)
	ctx, cancelFun := context.WithCancel(r.Context())
	defer cancelFun()
	aSession, err := s.initSessionHandshake(ctx, r, writer)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to initialize session: %v", err), http.StatusInternalServerError)
		return
	}

	<-r.Context().Done()
	s.base.Sessions.Delete(aSession.Id)
}

// initSessionHandshake initializes a new session and emits the "endpoint"
// event whose data is an absolute URL of the form
// "http://HOST/messages/{session-id}" per the legacy SSE bootstrap.
func (s *Handler) initSessionHandshake(ctx context.Context, r *http.Request, writer *common.FlushWriter) (*base.Session, error) {
	aSession := base.NewSession(ctx, "", writer, s.newHandler, s.options...)

	path := s.SessionLocation.PathURL(aSession.Id)
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s%s", scheme, common.ClientHost(r), path)
	payload := fmt.Sprintf("event: endpoint\ndata: %s\n\n", endpoint)
	if _, err := writer.Write([]byte(payload)); err != nil {
		return nil, err
	}
	s.base.Sessions.Put(aSession.Id, aSession)
	return aSession, nil
}

// SessionStore exposes the handler's session table so an outer router can
// run shared services (keep-alive, sweepers) over every live session.
func (s *Handler) SessionStore() base.SessionStore {
	return s.base.Sessions
}

// New creates a new Handler instance with the provided options.
func New(newHandler transport.NewHandler, options ...Option) *Handler {
	ret := &Handler{
		newHandler: newHandler,
		Options: Options{
			URI:             "/sse",
			MessageURI:      "/messages/",
			SessionLocation: session.NewPathLocation("/messages/"),
		},
		base:    base.NewHandler(),
		locator: session.NewDefaultLocator(),
		options: []base.Option{
			base.WithFramer(frameSSE),
			base.WithSSE(),
		},
	}
	for _, opt := range options {
		opt(&ret.Options)
	}
	return ret
}

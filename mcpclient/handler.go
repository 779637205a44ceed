package mcpclient

import (
	"context"
	"encoding/json"
	"github.com/viant/mcprt"
)

// ProgressHandler receives notifications/progress events.
type ProgressHandler func(progressToken interface{}, progress float64, total *float64, message string)

// LogHandler receives notifications/message events.
type LogHandler func(level string, logger string, data json.RawMessage)

// SamplingHandler answers server-initiated sampling/createMessage
// requests; the client performs the inference, not the server.
type SamplingHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// ElicitationHandler answers server-initiated elicitation/create requests.
type ElicitationHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Handler is the client side of the wire: it answers server-initiated
// requests (ping with an empty result, sampling/elicitation via the
// caller's handlers) and routes notifications to the caller's callbacks;
// other unsolicited notifications are logged and ignored.
type Handler struct {
	Logger      jsonrpc.Logger
	progress    ProgressHandler
	log         LogHandler
	sampling    SamplingHandler
	elicitation ElicitationHandler
}

// HandlerOption mutates Handler.
type HandlerOption func(*Handler)

// WithProgressHandler routes notifications/progress events.
func WithProgressHandler(handler ProgressHandler) HandlerOption {
	return func(h *Handler) { h.progress = handler }
}

// WithLogHandler routes notifications/message events.
func WithLogHandler(handler LogHandler) HandlerOption {
	return func(h *Handler) { h.log = handler }
}

// WithSamplingHandler answers sampling/createMessage requests.
func WithSamplingHandler(handler SamplingHandler) HandlerOption {
	return func(h *Handler) { h.sampling = handler }
}

// WithElicitationHandler answers elicitation/create requests.
func WithElicitationHandler(handler ElicitationHandler) HandlerOption {
	return func(h *Handler) { h.elicitation = handler }
}

// NewHandler creates a client-side handler.
func NewHandler(options ...HandlerOption) *Handler {
	ret := &Handler{Logger: jsonrpc.DefaultLogger}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Serve implements transport.Handler for server-initiated requests.
func (h *Handler) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = jsonrpc.Version
	switch request.Method {
	case "ping":
		response.Result = json.RawMessage("{}")
	case "sampling/createMessage":
		h.serveRoundTrip(ctx, request, response, h.sampling)
	case "elicitation/create":
		h.serveRoundTrip(ctx, request, response, h.elicitation)
	default:
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.MethodNotFound, Message: "Method not found", Data: request.Method}
	}
}

func (h *Handler) serveRoundTrip(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response, handler func(ctx context.Context, params json.RawMessage) (interface{}, error)) {
	if handler == nil {
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.MethodNotFound, Message: "Method not found", Data: request.Method}
		return
	}
	result, err := handler(ctx, request.Params)
	if err != nil {
		response.Error = jsonrpc.NewInternalError(request.Id, err, nil).Error
		return
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		response.Error = jsonrpc.NewInternalError(request.Id, err, nil).Error
		return
	}
	response.Result = encoded
}

// progressParams is the notifications/progress payload.
type progressParams struct {
	ProgressToken interface{} `json:"progressToken"`
	Progress      float64     `json:"progress"`
	Total         *float64    `json:"total,omitempty"`
	Message       string      `json:"message,omitempty"`
}

// logParams is the notifications/message payload.
type logParams struct {
	Level  string          `json:"level"`
	Logger string          `json:"logger,omitempty"`
	Data   json.RawMessage `json:"data"`
}

// OnNotification implements transport.Handler.
func (h *Handler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	switch notification.Method {
	case "notifications/progress":
		if h.progress == nil {
			return
		}
		params := &progressParams{}
		if err := json.Unmarshal(notification.Params, params); err != nil {
			if h.Logger != nil {
				h.Logger.Errorf("failed to parse progress notification: %v", err)
			}
			return
		}
		h.progress(params.ProgressToken, params.Progress, params.Total, params.Message)
	case "notifications/message":
		if h.log == nil {
			return
		}
		params := &logParams{}
		if err := json.Unmarshal(notification.Params, params); err != nil {
			if h.Logger != nil {
				h.Logger.Errorf("failed to parse log notification: %v", err)
			}
			return
		}
		h.log(params.Level, params.Logger, params.Data)
	default:
		if h.Logger != nil {
			h.Logger.Errorf("ignoring notification: %s", notification.Method)
		}
	}
}

package dispatch

import (
	"context"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/mcpregistry"
	"github.com/viant/mcprt/mcpsession"
	"github.com/viant/mcprt/reqctx"
	base "github.com/viant/mcprt/transport/server/base"
)

// ProtocolVersion is the MCP wire protocol version this dispatcher speaks.
const ProtocolVersion = "2025-06-18"

// ServerInfo identifies this server in the initialize handshake.
type ServerInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Dispatcher implements transport.Handler, routing the MCP method table
// against a mcpregistry.Registry and the caller's
// tool/resource/prompt providers. One Dispatcher is shared by every
// transport; a session's identity is read from the base.Session the
// transport bound into ctx under jsonrpc.SessionKey.
type Dispatcher struct {
	Info       ServerInfo
	Registry   *mcpregistry.Registry
	Sessions   *mcpsession.Store
	Tools      ToolProvider
	Resources  ResourceProvider
	Prompts    PromptProvider
	Completion CompletionProvider
	Logger     jsonrpc.Logger
}

// New constructs a Dispatcher backed by its own session store.
func New(info ServerInfo, registry *mcpregistry.Registry) *Dispatcher {
	return &Dispatcher{
		Info:     info,
		Registry: registry,
		Sessions: mcpsession.NewStore(),
		Logger:   jsonrpc.DefaultLogger,
	}
}

// Serve implements transport.Handler.
func (d *Dispatcher) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = jsonrpc.Version

	ctx = d.bindSession(ctx)
	ctx = reqctx.WithInfo(ctx, reqctx.NewInfo(request))

	result, rpcErr := d.route(ctx, request)
	if rpcErr != nil {
		response.Error = rpcErr
		return
	}
	encoded, err := jsonrpc.EncodeDeterministic(result)
	if err != nil {
		response.Error = jsonrpc.NewInternalError(request.Id, err, nil).Error
		return
	}
	response.Result = encoded
}

// OnNotification implements transport.Handler.
func (d *Dispatcher) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	ctx = d.bindSession(ctx)
	ctx = reqctx.WithInfo(ctx, reqctx.NewNotificationInfo(notification))
	switch notification.Method {
	case "notifications/initialized":
		// client finished its side of the handshake; nothing to do.
	case "logging/setLevel":
		// logging/setLevel arrives as a request; ignore a stray
		// notification form.
	default:
		if d.Logger != nil {
			d.Logger.Errorf("unhandled notification: %s", notification.Method)
		}
	}
}

// bindSession resolves the base.Session the transport attached to ctx
// into this dispatcher's mcpsession.Session and binds it back into ctx.
func (d *Dispatcher) bindSession(ctx context.Context) context.Context {
	baseSession, ok := ctx.Value(jsonrpc.SessionKey).(*base.Session)
	if !ok || baseSession == nil || d.Sessions == nil {
		return ctx
	}
	sess := d.Sessions.GetOrCreate(baseSession.Id, baseSession)
	return mcpsession.WithContext(ctx, sess)
}

func (d *Dispatcher) route(ctx context.Context, request *jsonrpc.Request) (interface{}, *jsonrpc.InnerError) {
	switch request.Method {
	case "initialize":
		return d.initialize(ctx, request)
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return d.toolsList(ctx), nil
	case "tools/call":
		return d.toolsCall(ctx, request)
	case "resources/list":
		return d.resourcesList(ctx), nil
	case "resources/read":
		return d.resourcesRead(ctx, request)
	case "prompts/list":
		return d.promptsList(ctx), nil
	case "prompts/get":
		return d.promptsGet(ctx, request)
	case "completion/complete":
		return d.completionComplete(ctx, request)
	case "logging/setLevel":
		return d.loggingSetLevel(ctx, request)
	default:
		return nil, &jsonrpc.InnerError{Code: jsonrpc.MethodNotFound, Message: "Method not found", Data: request.Method}
	}
}

func invalidParams(id jsonrpc.RequestId, err error) *jsonrpc.InnerError {
	return jsonrpc.NewInvalidParams(id, err, nil).Error
}

func internalError(id jsonrpc.RequestId, err error) *jsonrpc.InnerError {
	return jsonrpc.NewInternalError(id, err, nil).Error
}

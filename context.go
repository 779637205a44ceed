package jsonrpc

// sessionKeyType is the unexported type backing the SessionKey context key,
// preventing collisions with keys defined by other packages.
type sessionKeyType struct{}

// SessionKey is the context.Context key under which a transport stores the
// current connection's session value, e.g.
// ctx = context.WithValue(ctx, jsonrpc.SessionKey, aSession).
var SessionKey = sessionKeyType{}

// Listener is invoked by a transport for every inbound or outbound Message,
// primarily for logging/tracing hooks installed ahead of dispatch.
type Listener func(*Message)

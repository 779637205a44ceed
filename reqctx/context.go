package reqctx

import (
	"context"
	"github.com/viant/mcprt"
)

// Info is the per-message request context: the id and
// method of the inbound message plus an optional progress token lifted
// from its `_meta`. It lives for the duration of one handler invocation.
type Info struct {
	Id            jsonrpc.RequestId
	Method        string
	ProgressToken interface{}
}

type keyType struct{}

var key = keyType{}

// WithInfo binds info as the current request context in ctx.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, key, info)
}

// FromContext retrieves the request context bound by WithInfo, if any.
func FromContext(ctx context.Context) (*Info, bool) {
	info, ok := ctx.Value(key).(*Info)
	return info, ok
}

// meta is the shape of a request's "_meta" object this runtime reads a
// progress token from.
type meta struct {
	ProgressToken interface{} `json:"progressToken,omitempty"`
}

// paramsWithMeta is the subset of a request's params this package inspects
// to build an Info without requiring the caller to have already decoded
// method-specific params.
type paramsWithMeta struct {
	Meta *meta `json:"_meta,omitempty"`
}

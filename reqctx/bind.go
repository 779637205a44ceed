package reqctx

import (
	"encoding/json"
	"github.com/viant/mcprt"
)

// NewInfo builds an Info for an inbound request, pulling the progress
// token (if any) out of params._meta.
func NewInfo(request *jsonrpc.Request) *Info {
	info := &Info{Method: request.Method}
	if request != nil {
		info.Id = request.Id
	}
	if len(request.Params) == 0 {
		return info
	}
	var withMeta paramsWithMeta
	if err := json.Unmarshal(request.Params, &withMeta); err != nil {
		return info
	}
	if withMeta.Meta != nil {
		info.ProgressToken = withMeta.Meta.ProgressToken
	}
	return info
}

// NewNotificationInfo builds an Info for an inbound notification (no id).
func NewNotificationInfo(notification *jsonrpc.Notification) *Info {
	info := &Info{Method: notification.Method}
	if len(notification.Params) == 0 {
		return info
	}
	var withMeta paramsWithMeta
	if err := json.Unmarshal(notification.Params, &withMeta); err != nil {
		return info
	}
	if withMeta.Meta != nil {
		info.ProgressToken = withMeta.Meta.ProgressToken
	}
	return info
}

package transport

import (
	"context"
	"github.com/viant/mcprt"
)

// Notifier represents a notification handler
type Notifier interface {
	Notify(ctx context.Context, notification *jsonrpc.Notification) error
}

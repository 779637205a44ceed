package http

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/viant/mcprt"
	"github.com/viant/mcprt/transport/server/base"
)

// KeepAliveMode selects what the keep-alive timer writes on idle streams.
type KeepAliveMode int

const (
	// KeepAliveOff disables the timer.
	KeepAliveOff KeepAliveMode = iota
	// KeepAliveComment writes an SSE comment line, invisible to the
	// JSON-RPC layer.
	KeepAliveComment
	// KeepAlivePing issues a JSON-RPC ping request; the client's empty
	// response is recognized by the codec and silently dropped.
	KeepAlivePing
)

// DefaultKeepAlivePeriod is the interval between keep-alive writes.
const DefaultKeepAlivePeriod = 30 * time.Second

// keepAliveComment is the exact frame emitted in comment mode.
var keepAliveComment = []byte(": keep-alive\n")

// KeepAlive runs one shared timer per transport and touches every live
// session each tick, either with an SSE comment or a ping request.
type KeepAlive struct {
	Mode   KeepAliveMode
	Period time.Duration
	Logger jsonrpc.Logger

	stores []base.SessionStore

	once sync.Once
	stop chan struct{}
}

// NewKeepAlive creates a timer over the given session stores.
func NewKeepAlive(mode KeepAliveMode, period time.Duration, stores ...base.SessionStore) *KeepAlive {
	if period <= 0 {
		period = DefaultKeepAlivePeriod
	}
	return &KeepAlive{
		Mode:   mode,
		Period: period,
		Logger: jsonrpc.DefaultLogger,
		stores: stores,
		stop:   make(chan struct{}),
	}
}

// Start launches the timer goroutine; a no-op in KeepAliveOff mode.
func (k *KeepAlive) Start() {
	if k.Mode == KeepAliveOff {
		return
	}
	go k.run()
}

// Stop cancels the timer.
func (k *KeepAlive) Stop() {
	k.once.Do(func() { close(k.stop) })
}

func (k *KeepAlive) run() {
	ticker := time.NewTicker(k.Period)
	defer ticker.Stop()
	for {
		select {
		case <-k.stop:
			return
		case <-ticker.C:
			k.tick(context.Background())
		}
	}
}

func (k *KeepAlive) tick(ctx context.Context) {
	for _, store := range k.stores {
		store.Range(func(_ string, session *base.Session) bool {
			k.touch(ctx, session)
			return true
		})
	}
}

func (k *KeepAlive) touch(ctx context.Context, session *base.Session) {
	if session.State != base.SessionStateActive || !session.WriterPresent {
		return
	}
	switch k.Mode {
	case KeepAliveComment:
		session.Lock()
		writer := session.Writer
		session.Unlock()
		if writer == nil {
			return
		}
		if _, err := writer.Write(keepAliveComment); err != nil && k.Logger != nil {
			k.Logger.Errorf("keep-alive write failed for session %s: %v", session.Id, err)
		}
	case KeepAlivePing:
		request := &jsonrpc.Request{
			Jsonrpc: jsonrpc.Version,
			Id:      session.NextRequestID(),
			Method:  "ping",
			Params:  json.RawMessage("{}"),
		}
		session.SendRequest(ctx, request)
	}
}

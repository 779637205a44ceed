package base

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/transport/base"
	"sync/atomic"
)

// Handler represents a jsonrpc endpoint
type Handler struct {
	Sessions SessionStore
	Logger   jsonrpc.Logger // Logger for error messages
}

// HandleMessage dispatches one frame, which is either a single JSON-RPC
// object or a batch (JSON array). An empty batch is a protocol error per
// spec and is reported as InvalidRequest against a nil id.
func (e *Handler) HandleMessage(ctx context.Context, session *Session, data []byte, output *bytes.Buffer) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		e.handleBatch(ctx, session, trimmed, output)
		return
	}
	e.handleOne(ctx, session, data, output)
}

func (e *Handler) handleBatch(ctx context.Context, session *Session, data []byte, output *bytes.Buffer) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		session.SendError(ctx, jsonrpc.NewParsingError(nil, fmt.Errorf("failed to parse batch: %w", err), data))
		return
	}
	if len(elements) == 0 {
		session.SendError(ctx, jsonrpc.NewInvalidRequest(nil, fmt.Errorf("empty batch"), data))
		return
	}
	if output == nil {
		for _, element := range elements {
			e.handleOne(ctx, session, element, nil)
		}
		return
	}
	// Collect only non-empty responses (pure notifications produce none),
	// preserving the order of the request elements; intra-batch ordering
	// on the wire is required only for this response array.
	responses := make([]json.RawMessage, 0, len(elements))
	for _, element := range elements {
		var buf bytes.Buffer
		e.handleOne(ctx, session, element, &buf)
		if buf.Len() > 0 {
			responses = append(responses, append(json.RawMessage(nil), buf.Bytes()...))
		}
	}
	if len(responses) == 0 {
		return
	}
	if len(responses) == 1 {
		output.Write(responses[0])
		return
	}
	encoded, err := json.Marshal(responses)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Errorf("failed to encode batch response: %v", err)
		}
		return
	}
	output.Write(encoded)
}

func (e *Handler) handleOne(ctx context.Context, session *Session, data []byte, output *bytes.Buffer) {
	messageType := base.MessageType(data)
	switch messageType {
	case jsonrpc.MessageTypeRequest:
		request := &jsonrpc.Request{}
		if err := json.Unmarshal(data, request); err != nil {
			session.SendError(ctx, jsonrpc.NewParsingError(nil, fmt.Errorf("failed to parse: %w", err), data))
			return
		}
		if request.Id != nil {
			if intId, ok := jsonrpc.AsRequestIntId(request.Id); ok && intId > 0 {
				nextSeq := uint64(intId)
				for {
					current := atomic.LoadUint64(&session.RequestIdSeq)
					if nextSeq <= current {
						break
					}
					if atomic.CompareAndSwapUint64(&session.RequestIdSeq, current, nextSeq) {
						break
					}
				}
			}
		}

		response := &jsonrpc.Response{Id: request.Id, Jsonrpc: request.Jsonrpc}
		session.Handler.Serve(ctx, request, response)
		if output != nil {
			if response.Error != nil {
				response.Result = nil
			}
			data, err := json.Marshal(response)
			if err != nil {
				if e.Logger != nil {
					e.Logger.Errorf("failed to encode response: %v", err)
				}
				return
			}
			output.Write(data)
		} else {
			session.SendResponse(ctx, response)
		}
	case jsonrpc.MessageTypeResponse:
		response := &jsonrpc.Response{}
		if err := json.Unmarshal(data, response); err != nil {
			if e.Logger != nil {
				e.Logger.Errorf("failed to parse response: %v", err)
			}
			return
		}
		aTrip, err := session.RoundTrips.Match(response.Id)
		if err != nil {
			return
		}
		aTrip.SetResponse(response)
	case jsonrpc.MessageTypeNotification:
		notification := &jsonrpc.Notification{}
		if err := json.Unmarshal(data, notification); err != nil {
			if e.Logger != nil {
				e.Logger.Errorf("failed to parse notification: %v", err)
			}
			return
		}
		session.Handler.OnNotification(ctx, notification)
	}
}

// NewHandler creates a Handler backed by an in-memory SessionStore. Pass a
// custom store (e.g. a Redis-backed one) via NewHandlerWithStore for
// multi-instance deployments.
func NewHandler() *Handler {
	return NewHandlerWithStore(NewMemorySessionStore())
}

// NewHandlerWithStore creates a Handler backed by the given SessionStore.
func NewHandlerWithStore(store SessionStore) *Handler {
	return &Handler{
		Sessions: store,
		Logger:   jsonrpc.DefaultLogger,
	}
}

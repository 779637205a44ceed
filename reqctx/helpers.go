package reqctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/internal/pointer"
	"github.com/viant/mcprt/mcpsession"
	"time"
)

// ErrNoActiveSession is returned by the server->client helpers when ctx
// carries no bound session.
var ErrNoActiveSession = errors.New("no active session")

// ErrClientHasNoSamplingSupport is returned by Sample when the session's
// negotiated capabilities did not include sampling.
var ErrClientHasNoSamplingSupport = errors.New("client has no sampling support")

// ErrClientHasNoElicitationSupport is returned by Elicit when the
// session's negotiated capabilities did not include elicitation.
var ErrClientHasNoElicitationSupport = errors.New("client has no elicitation support")

const defaultRoundTripTimeout = 30 * time.Second

// ReportProgress emits notifications/progress on the ambient session, but
// only when the inbound request carried a progress token; it is a no-op
// otherwise.
func ReportProgress(ctx context.Context, progress float64, total *float64, message string) error {
	sess, ok := mcpsession.FromContext(ctx)
	if !ok {
		return ErrNoActiveSession
	}
	info, ok := FromContext(ctx)
	if !ok || info.ProgressToken == nil {
		return nil
	}
	params := map[string]interface{}{
		"progressToken": info.ProgressToken,
		"progress":      progress,
	}
	if total != nil {
		params["total"] = pointer.Deref(total)
	}
	if message != "" {
		params["message"] = message
	}
	return notify(ctx, sess, "notifications/progress", params)
}

// SendToolListChanged notifies the ambient session's client that the tool
// list has changed.
func SendToolListChanged(ctx context.Context) error {
	return sendListChanged(ctx, "notifications/tools/list_changed")
}

// SendResourceListChanged notifies the ambient session's client that the
// resource list has changed.
func SendResourceListChanged(ctx context.Context) error {
	return sendListChanged(ctx, "notifications/resources/list_changed")
}

// SendPromptListChanged notifies the ambient session's client that the
// prompt list has changed.
func SendPromptListChanged(ctx context.Context) error {
	return sendListChanged(ctx, "notifications/prompts/list_changed")
}

func sendListChanged(ctx context.Context, method string) error {
	sess, ok := mcpsession.FromContext(ctx)
	if !ok {
		return ErrNoActiveSession
	}
	return notify(ctx, sess, method, nil)
}

func notify(ctx context.Context, sess *mcpsession.Session, method string, params interface{}) error {
	var raw json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to encode %s params: %w", method, err)
		}
		raw = encoded
	}
	notification := &jsonrpc.Notification{Jsonrpc: jsonrpc.Version, Method: method, Params: raw}
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", method, err)
	}
	sess.SendData(ctx, data)
	return nil
}

// SamplingResponse is the result of a sampling/createMessage round trip.
type SamplingResponse struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Model   string          `json:"model,omitempty"`
}

// Sample issues a server->client `sampling/createMessage` request on the
// ambient session and awaits the matching response.
func Sample(ctx context.Context, request map[string]interface{}) (*SamplingResponse, error) {
	sess, ok := mcpsession.FromContext(ctx)
	if !ok {
		return nil, ErrNoActiveSession
	}
	if !sess.ClientCapabilities.Sampling {
		return nil, ErrClientHasNoSamplingSupport
	}
	response := &SamplingResponse{}
	if err := roundTrip(ctx, sess, "sampling/createMessage", request, response); err != nil {
		return nil, err
	}
	return response, nil
}

// ElicitationResponse is the result of an elicitation/create round trip.
type ElicitationResponse struct {
	Action  string                 `json:"action"`
	Content map[string]interface{} `json:"content,omitempty"`
}

// Elicit issues a server->client `elicitation/create` request on the
// ambient session and awaits the matching response.
func Elicit(ctx context.Context, message string, schema *jsonrpc.Schema) (*ElicitationResponse, error) {
	sess, ok := mcpsession.FromContext(ctx)
	if !ok {
		return nil, ErrNoActiveSession
	}
	if !sess.ClientCapabilities.Elicitation {
		return nil, ErrClientHasNoElicitationSupport
	}
	request := map[string]interface{}{
		"message":         message,
		"requestedSchema": schema,
	}
	response := &ElicitationResponse{}
	if err := roundTrip(ctx, sess, "elicitation/create", request, response); err != nil {
		return nil, err
	}
	return response, nil
}

// roundTrip sends method/params as a server->client request on sess and
// decodes the matching response's result into out. Matching and
// suspension reuse the session's own RoundTrips ring buffer, the same
// correlation table the client side uses, run in reverse.
func roundTrip(ctx context.Context, sess *mcpsession.Session, method string, params interface{}, out interface{}) error {
	encodedParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode %s params: %w", method, err)
	}
	request := &jsonrpc.Request{
		Jsonrpc: jsonrpc.Version,
		Id:      sess.NextRequestID(),
		Method:  method,
		Params:  encodedParams,
	}
	trip, err := sess.RoundTrips.Add(request)
	if err != nil {
		return fmt.Errorf("failed to register %s round trip: %w", method, err)
	}
	sess.SendRequest(ctx, request)
	if err := trip.Wait(ctx, defaultRoundTripTimeout); err != nil {
		return fmt.Errorf("%s round trip failed: %w", method, err)
	}
	if trip.Response.Error != nil {
		return fmt.Errorf("%s rejected: %s", method, trip.Response.Error.Message)
	}
	if len(trip.Response.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(trip.Response.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

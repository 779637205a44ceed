package mcpsession

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/transport"
	base "github.com/viant/mcprt/transport/server/base"
)

func TestStore_BroadcastLogFiltersByLevel(t *testing.T) {
	store := NewStore()

	verboseOut := &bytes.Buffer{}
	verbose := New(&base.Session{Id: "verbose", Writer: verboseOut})
	verbose.SetMinimumLogLevel(LogLevelDebug)

	quietOut := &bytes.Buffer{}
	quiet := New(&base.Session{Id: "quiet", Writer: quietOut})
	quiet.SetMinimumLogLevel(LogLevelError)

	store.Put("verbose", verbose)
	store.Put("quiet", quiet)

	store.BroadcastLog(context.Background(), LogMessage{Level: "info", Data: "routine"})
	assert.Contains(t, verboseOut.String(), "notifications/message")
	assert.Contains(t, verboseOut.String(), "routine")
	assert.Equal(t, 0, quietOut.Len())

	store.BroadcastLog(context.Background(), LogMessage{Level: "critical", Data: "on fire"})
	assert.Contains(t, quietOut.String(), "on fire")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelEmergency, ParseLogLevel("emergency"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("unknown"))
}

func TestSession_CancelPendingFailsInFlight(t *testing.T) {
	sess := New(&base.Session{Id: "s1", RoundTrips: transport.NewRoundTrips(4)})
	request := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Id: 1, Method: "sampling/createMessage"}
	trip, err := sess.RoundTrips.Add(request)
	assert.NoError(t, err)

	sess.CancelPending()

	assert.NotNil(t, trip.Response)
	assert.NotNil(t, trip.Response.Error)
	assert.Equal(t, ErrConnectionClosed, trip.Response.Error.Message)

	// the ring refuses new trips after cancellation
	_, err = sess.RoundTrips.Add(request)
	assert.Error(t, err)
}

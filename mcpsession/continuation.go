package mcpsession

import (
	"github.com/viant/mcprt"
)

// ErrConnectionClosed is the stable message delivered to every pending
// server->client continuation when the owning transport closes before the
// client's response arrived.
const ErrConnectionClosed = "Connection closed by server before response was received"

// CancelPending fails every in-flight server->client round trip on this
// session exactly once and blocks the ring from accepting new ones. Safe
// to call repeatedly; already-completed trips are untouched.
func (s *Session) CancelPending() {
	if s.Session == nil || s.RoundTrips == nil {
		return
	}
	s.RoundTrips.CloseWithError(&jsonrpc.InnerError{Code: jsonrpc.InternalError, Message: ErrConnectionClosed})
	for _, trip := range s.RoundTrips.Ring {
		if trip == nil || trip.Response != nil {
			continue
		}
		trip.SetError(&jsonrpc.InnerError{Code: jsonrpc.InternalError, Message: ErrConnectionClosed})
	}
}

package sse

import "github.com/viant/mcprt/transport/server/http/session"

type Option func(t *Options)

// WithSessionLocation sets the sessionIdLocation used to locate/construct
// the per-session message endpoint.
func WithSessionLocation(location *session.Location) Option {
	return func(t *Options) {
		t.SessionLocation = location
	}
}

// WithMessageURI sets the message URI prefix for the transport
func WithMessageURI(messageURI string) Option {
	return func(t *Options) {
		if t != nil {
			t.MessageURI = messageURI
		}
	}
}

// WithURI sets the SSE URI for the transport
func WithURI(sseURI string) Option {
	return func(t *Options) {
		if t != nil {
			t.URI = sseURI
		}
	}
}

package sse

import "github.com/viant/mcprt/transport/server/http/session"

// Options represents SSE options
type Options struct {
	MessageURI      string
	URI             string
	SessionLocation *session.Location // location of the session id on /messages/{id}
}

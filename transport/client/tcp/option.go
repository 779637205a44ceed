package tcp

import (
	"time"

	"github.com/viant/mcprt"
	"github.com/viant/mcprt/transport"
)

// Option mutates Client.
type Option func(*Client)

// WithPreferIPv4 pins dialing and discovery to the IPv4 stack.
func WithPreferIPv4(preferIPv4 bool) Option {
	return func(c *Client) { c.preferIPv4 = preferIPv4 }
}

// WithServiceType overrides the default "_mcp._tcp" browse type.
func WithServiceType(serviceType string) Option {
	return func(c *Client) { c.serviceType = serviceType }
}

// WithDomain overrides the default "local." browse domain.
func WithDomain(domain string) Option {
	return func(c *Client) { c.domain = domain }
}

// WithBrowseTimeout bounds how long Discover waits for a matching record.
func WithBrowseTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.browseTimeout = timeout }
}

// WithHandler sets the handler for server-initiated requests.
func WithHandler(handler transport.Handler) Option {
	return func(c *Client) { c.base.Handler = handler }
}

// WithListener installs a message listener on the underlying client.
func WithListener(listener jsonrpc.Listener) Option {
	return func(c *Client) { c.base.Listener = listener }
}

// WithTrips overrides the round-trip correlation table.
func WithTrips(trips *transport.RoundTrips) Option {
	return func(c *Client) { c.base.RoundTrips = trips }
}

// WithRunTimeout bounds each request/response round trip.
func WithRunTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.base.RunTimeout = timeout }
}

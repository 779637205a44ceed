package tcp

import (
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/transport/server/base"
)

// Options configures the TCP transport and its Bonjour advertisement.
type Options struct {
	// Port to listen on; zero lets the OS assign one, and the service
	// record carries whatever was bound.
	Port int

	// ServiceName is the Bonjour instance name, typically the server name.
	ServiceName string
	// ServiceType is the DNS-SD service type, "_mcp._tcp" by default.
	ServiceType string
	// Domain is the DNS-SD domain, "local." by default.
	Domain string
	// Advertise controls whether the listener registers a Bonjour record.
	Advertise bool
	// AcceptLocalOnly binds the listener to the loopback interface so the
	// service is only reachable from this host.
	AcceptLocalOnly bool
	// PreferIPv4 pins the listener to the IPv4 stack.
	PreferIPv4 bool
	// TXT carries optional extra TXT record entries.
	TXT []string
}

// Option mutates Options.
type Option func(s *Server)

// WithPort sets an explicit listen port.
func WithPort(port int) Option {
	return func(s *Server) { s.Port = port }
}

// WithServiceName sets the Bonjour instance name.
func WithServiceName(name string) Option {
	return func(s *Server) { s.ServiceName = name }
}

// WithServiceType overrides the default "_mcp._tcp" service type.
func WithServiceType(serviceType string) Option {
	return func(s *Server) { s.ServiceType = serviceType }
}

// WithDomain overrides the default "local." DNS-SD domain.
func WithDomain(domain string) Option {
	return func(s *Server) { s.Domain = domain }
}

// WithAdvertise toggles the Bonjour advertisement.
func WithAdvertise(advertise bool) Option {
	return func(s *Server) { s.Advertise = advertise }
}

// WithAcceptLocalOnly restricts the listener to the loopback interface.
func WithAcceptLocalOnly(localOnly bool) Option {
	return func(s *Server) { s.AcceptLocalOnly = localOnly }
}

// WithPreferIPv4 pins the listener to the IPv4 stack.
func WithPreferIPv4(preferIPv4 bool) Option {
	return func(s *Server) { s.PreferIPv4 = preferIPv4 }
}

// WithTXT adds TXT record entries to the advertisement.
func WithTXT(txt ...string) Option {
	return func(s *Server) { s.TXT = append(s.TXT, txt...) }
}

// WithLogger sets the logger for connection-level errors.
func WithLogger(logger jsonrpc.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithSessionOptions passes base session options (framer, event buffer)
// onto every per-connection session.
func WithSessionOptions(options ...base.Option) Option {
	return func(s *Server) { s.sessionOptions = append(s.sessionOptions, options...) }
}

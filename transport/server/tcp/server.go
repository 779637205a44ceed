package tcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/transport"
	"github.com/viant/mcprt/transport/server/base"
)

const (
	// DefaultServiceType is the DNS-SD service type MCP servers advertise.
	DefaultServiceType = "_mcp._tcp"
	// DefaultDomain is the DNS-SD domain the advertisement targets.
	DefaultDomain = "local."
)

// Server accepts line-framed JSON-RPC connections over TCP and advertises
// itself via Bonjour/DNS-SD. Every inbound connection gets a fresh session;
// each connection runs one receive loop that accumulates bytes into lines
// and dispatches each line through the shared base handler.
type Server struct {
	Options
	base           *base.Handler
	newHandler     transport.NewHandler
	sessionOptions []base.Option
	logger         jsonrpc.Logger

	listener net.Listener
	bonjour  *zeroconf.Server

	ctx    context.Context
	cancel context.CancelFunc

	mux     sync.Mutex
	started bool
}

// Addr returns the bound listen address, valid after ListenAndServe
// started.
func (s *Server) Addr() net.Addr {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe binds the listener, registers the Bonjour record and
// accepts connections until Stop is called or the context ends.
func (s *Server) ListenAndServe() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	s.mux.Lock()
	s.listener = listener
	s.started = true
	s.mux.Unlock()

	if s.Advertise {
		if err := s.advertise(listener); err != nil {
			_ = listener.Close()
			return err
		}
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}
		go s.serveConn(conn)
	}
}

func (s *Server) listen() (net.Listener, error) {
	network := "tcp"
	if s.PreferIPv4 {
		network = "tcp4"
	}
	host := ""
	if s.AcceptLocalOnly {
		host = "127.0.0.1"
		if !s.PreferIPv4 {
			host = "localhost"
		}
	}
	address := fmt.Sprintf("%s:%d", host, s.Port)
	listener, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", address, err)
	}
	return listener, nil
}

func (s *Server) advertise(listener net.Listener) error {
	addr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("unexpected listener address: %v", listener.Addr())
	}
	name := s.ServiceName
	if name == "" {
		name = "mcp"
	}
	bonjour, err := zeroconf.Register(name, s.ServiceType, s.Domain, addr.Port, s.TXT, nil)
	if err != nil {
		return fmt.Errorf("failed to register %s service: %w", s.ServiceType, err)
	}
	s.mux.Lock()
	s.bonjour = bonjour
	s.mux.Unlock()
	return nil
}

// serveConn runs one connection's receive loop: lines in, dispatch, and
// replies written back on the same socket from the session's write path.
func (s *Server) serveConn(conn net.Conn) {
	aSession := base.NewSession(s.ctx, "", newLineWriter(conn), s.newHandler, s.sessionOptions...)
	s.base.Sessions.Put(aSession.Id, aSession)
	defer func() {
		s.base.Sessions.Delete(aSession.Id)
		_ = conn.Close()
	}()

	ctx := context.WithValue(s.ctx, jsonrpc.SessionKey, aSession)
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		data := make([]byte, len(line))
		copy(data, line)
		s.base.HandleMessage(ctx, aSession, data, nil)
	}
	if err := scanner.Err(); err != nil && s.logger != nil {
		select {
		case <-s.ctx.Done():
		default:
			s.logger.Errorf("tcp receive loop ended: %v", err)
		}
	}
}

// Stop closes the listener, withdraws the Bonjour record and tears down
// every session.
func (s *Server) Stop() {
	s.cancel()
	s.mux.Lock()
	listener := s.listener
	bonjour := s.bonjour
	s.mux.Unlock()
	if bonjour != nil {
		bonjour.Shutdown()
	}
	if listener != nil {
		_ = listener.Close()
	}
	var ids []string
	s.base.Sessions.Range(func(id string, _ *base.Session) bool {
		ids = append(ids, id)
		return true
	})
	for _, id := range ids {
		s.base.Sessions.Delete(id)
	}
}

// New creates a TCP transport serving newHandler.
func New(ctx context.Context, newHandler transport.NewHandler, options ...Option) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	serverCtx, cancel := context.WithCancel(ctx)
	ret := &Server{
		Options: Options{
			ServiceType: DefaultServiceType,
			Domain:      DefaultDomain,
			Advertise:   true,
		},
		base:       base.NewHandler(),
		newHandler: newHandler,
		logger:     jsonrpc.DefaultLogger,
		ctx:        serverCtx,
		cancel:     cancel,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

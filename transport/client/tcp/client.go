package tcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/transport"
	"github.com/viant/mcprt/transport/client/base"
)

// Client consumes a line-framed JSON-RPC server over TCP, dialed directly
// or discovered via Bonjour/DNS-SD browse.
type Client struct {
	base       *base.Client
	conn       net.Conn
	transport  *Transport
	ctx        context.Context
	cancel     context.CancelFunc
	preferIPv4 bool

	serviceType   string
	domain        string
	browseTimeout time.Duration
}

func (c *Client) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	return c.base.Notify(ctx, notification)
}

func (c *Client) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	return c.base.Send(ctx, request)
}

// Close terminates the connection and the receive loop.
func (c *Client) Close() error {
	c.cancel()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) start(address string) error {
	network := "tcp"
	if c.preferIPv4 {
		network = "tcp4"
	}
	conn, err := net.Dial(network, address)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", address, err)
	}
	c.conn = conn
	c.transport.conn = conn
	go c.receiveLoop(conn)
	return nil
}

func (c *Client) receiveLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		data := make([]byte, len(line))
		copy(data, line)
		c.base.HandleMessage(c.ctx, data)
	}
	err := scanner.Err()
	if err == nil {
		err = fmt.Errorf("connection closed")
	}
	c.base.FailPending(err)
}

// discover browses DNS-SD for the configured service type and returns the
// address of the first instance whose name matches serviceName
// (case-insensitively); an empty serviceName matches any instance.
func (c *Client) discover(ctx context.Context, serviceName string) (string, error) {
	var opts []zeroconf.ClientOption
	if c.preferIPv4 {
		opts = append(opts, zeroconf.SelectIPTraffic(zeroconf.IPv4))
	}
	resolver, err := zeroconf.NewResolver(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create DNS-SD resolver: %w", err)
	}
	entries := make(chan *zeroconf.ServiceEntry, 8)
	browseCtx, cancel := context.WithTimeout(ctx, c.browseTimeout)
	defer cancel()
	if err := resolver.Browse(browseCtx, c.serviceType, c.domain, entries); err != nil {
		return "", fmt.Errorf("failed to browse %s: %w", c.serviceType, err)
	}
	for {
		select {
		case <-browseCtx.Done():
			return "", fmt.Errorf("service %q not found: %w", serviceName, browseCtx.Err())
		case entry, ok := <-entries:
			if !ok {
				return "", fmt.Errorf("service %q not found", serviceName)
			}
			if entry == nil {
				continue
			}
			if serviceName != "" && !strings.EqualFold(entry.Instance, serviceName) {
				continue
			}
			if address := entryAddress(entry, c.preferIPv4); address != "" {
				return address, nil
			}
		}
	}
}

func entryAddress(entry *zeroconf.ServiceEntry, preferIPv4 bool) string {
	if len(entry.AddrIPv4) > 0 {
		return fmt.Sprintf("%s:%d", entry.AddrIPv4[0].String(), entry.Port)
	}
	if !preferIPv4 && len(entry.AddrIPv6) > 0 {
		return fmt.Sprintf("[%s]:%d", entry.AddrIPv6[0].String(), entry.Port)
	}
	return ""
}

func newClient(ctx context.Context, options ...Option) *Client {
	clientCtx, cancel := context.WithCancel(ctx)
	ret := &Client{
		ctx:           clientCtx,
		cancel:        cancel,
		serviceType:   "_mcp._tcp",
		domain:        "local.",
		browseTimeout: 10 * time.Second,
		transport:     &Transport{},
		base: &base.Client{
			RunTimeout: 5 * time.Minute,
			RoundTrips: transport.NewRoundTrips(100),
			Handler:    &base.Handler{},
			Logger:     jsonrpc.DefaultLogger,
		},
	}
	ret.base.Transport = ret.transport
	for _, option := range options {
		option(ret)
	}
	return ret
}

// New dials address directly and starts the receive loop.
func New(ctx context.Context, address string, options ...Option) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ret := newClient(ctx, options...)
	if err := ret.start(address); err != nil {
		return nil, err
	}
	return ret, nil
}

// Discover browses for serviceName via DNS-SD, dials the first match and
// starts the receive loop.
func Discover(ctx context.Context, serviceName string, options ...Option) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ret := newClient(ctx, options...)
	address, err := ret.discover(ctx, serviceName)
	if err != nil {
		return nil, err
	}
	if err := ret.start(address); err != nil {
		return nil, err
	}
	return ret, nil
}

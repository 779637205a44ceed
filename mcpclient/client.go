package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/dispatch"
	"github.com/viant/mcprt/transport"
)

// ClientInfo identifies this client during the initialize handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult carries the server's side of the handshake.
type InitializeResult struct {
	ProtocolVersion string                     `json:"protocolVersion"`
	Capabilities    map[string]json.RawMessage `json:"capabilities"`
	ServerInfo      dispatch.ServerInfo        `json:"serverInfo"`
}

// Client is the consumer-side facade: one API over whichever transport
// client (stdio, TCP, legacy SSE, streamable HTTP) the caller opened.
// Outbound id allocation and response correlation live in the underlying
// transport client; this facade owns the MCP handshake and method surface.
type Client struct {
	transport    transport.Transport
	info         ClientInfo
	capabilities map[string]interface{}

	serverInfo         *dispatch.ServerInfo
	serverCapabilities map[string]json.RawMessage
}

// Option mutates Client.
type Option func(*Client)

// WithClientInfo sets the client identity sent during initialize.
func WithClientInfo(info ClientInfo) Option {
	return func(c *Client) { c.info = info }
}

// WithCapability declares a client capability (e.g. "sampling",
// "elicitation") in the initialize handshake.
func WithCapability(name string) Option {
	return func(c *Client) { c.capabilities[name] = map[string]interface{}{} }
}

// New wraps an opened transport client. The transport must have been
// created with a *Handler (see NewHandler) so server-initiated traffic is
// answered.
func New(t transport.Transport, options ...Option) *Client {
	ret := &Client{
		transport:    t,
		info:         ClientInfo{Name: "mcprt", Version: "0.1.0"},
		capabilities: map[string]interface{}{},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// ServerInfo returns the server identity recorded during Initialize.
func (c *Client) ServerInfo() *dispatch.ServerInfo { return c.serverInfo }

// ServerCapabilities returns the capabilities recorded during Initialize.
func (c *Client) ServerCapabilities() map[string]json.RawMessage { return c.serverCapabilities }

// Initialize performs the handshake and sends notifications/initialized.
func (c *Client) Initialize(ctx context.Context) (*InitializeResult, error) {
	params := map[string]interface{}{
		"protocolVersion": dispatch.ProtocolVersion,
		"clientInfo":      c.info,
		"capabilities":    c.capabilities,
	}
	result := &InitializeResult{}
	if err := c.call(ctx, "initialize", params, result); err != nil {
		return nil, err
	}
	c.serverInfo = &result.ServerInfo
	c.serverCapabilities = result.Capabilities
	notification := &jsonrpc.Notification{Jsonrpc: jsonrpc.Version, Method: "notifications/initialized"}
	if err := c.transport.Notify(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to send initialized notification: %w", err)
	}
	return result, nil
}

// Ping issues a ping request; the empty result confirms liveness.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, "ping", map[string]interface{}{}, &struct{}{})
}

// ListTools returns the server's tools.
func (c *Client) ListTools(ctx context.Context) ([]dispatch.MCPTool, error) {
	result := &struct {
		Tools []dispatch.MCPTool `json:"tools"`
	}{}
	if err := c.call(ctx, "tools/list", nil, result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a tool by name.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*dispatch.ToolCallResult, error) {
	params := map[string]interface{}{"name": name}
	if arguments != nil {
		params["arguments"] = arguments
	}
	result := &dispatch.ToolCallResult{}
	if err := c.call(ctx, "tools/call", params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListResources returns the server's resources.
func (c *Client) ListResources(ctx context.Context) ([]dispatch.MCPResource, error) {
	result := &struct {
		Resources []dispatch.MCPResource `json:"resources"`
	}{}
	if err := c.call(ctx, "resources/list", nil, result); err != nil {
		return nil, err
	}
	return result.Resources, nil
}

// ReadResource reads a resource by URI.
func (c *Client) ReadResource(ctx context.Context, uri string) ([]dispatch.ResourceContents, error) {
	result := &struct {
		Contents []dispatch.ResourceContents `json:"contents"`
	}{}
	if err := c.call(ctx, "resources/read", map[string]interface{}{"uri": uri}, result); err != nil {
		return nil, err
	}
	return result.Contents, nil
}

// ListPrompts returns the server's prompts.
func (c *Client) ListPrompts(ctx context.Context) ([]dispatch.MCPPrompt, error) {
	result := &struct {
		Prompts []dispatch.MCPPrompt `json:"prompts"`
	}{}
	if err := c.call(ctx, "prompts/list", nil, result); err != nil {
		return nil, err
	}
	return result.Prompts, nil
}

// PromptResult is the prompts/get result envelope.
type PromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    json.RawMessage `json:"messages"`
}

// GetPrompt renders a prompt by name.
func (c *Client) GetPrompt(ctx context.Context, name string, arguments map[string]interface{}) (*PromptResult, error) {
	params := map[string]interface{}{"name": name}
	if arguments != nil {
		params["arguments"] = arguments
	}
	result := &PromptResult{}
	if err := c.call(ctx, "prompts/get", params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SetLogLevel mutates the server-side log filter for this session.
func (c *Client) SetLogLevel(ctx context.Context, level string) error {
	return c.call(ctx, "logging/setLevel", map[string]interface{}{"level": level}, &struct{}{})
}

// Complete requests completion values for a prompt or resource reference.
func (c *Client) Complete(ctx context.Context, ref, argument map[string]interface{}) (*dispatch.CompleteResult, error) {
	params := map[string]interface{}{"ref": ref, "argument": argument}
	result := &dispatch.CompleteResult{}
	if err := c.call(ctx, "completion/complete", params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	request, err := jsonrpc.NewRequest(method, params)
	if err != nil {
		return err
	}
	response, err := c.transport.Send(ctx, request)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	if response.Error != nil {
		return fmt.Errorf("%s rejected: %s", method, response.Error.Message)
	}
	if out == nil || len(response.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(response.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

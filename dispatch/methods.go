package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/mcpregistry"
	"github.com/viant/mcprt/mcpsession"
)

type initializeParams struct {
	ProtocolVersion string                     `json:"protocolVersion"`
	Capabilities    map[string]json.RawMessage `json:"capabilities"`
	ClientInfo      map[string]interface{}     `json:"clientInfo"`
}

func (d *Dispatcher) initialize(ctx context.Context, request *jsonrpc.Request) (interface{}, *jsonrpc.InnerError) {
	params := &initializeParams{}
	if len(request.Params) > 0 {
		if err := json.Unmarshal(request.Params, params); err != nil {
			return nil, invalidParams(request.Id, fmt.Errorf("failed to parse initialize params: %w", err))
		}
	}
	if sess, ok := mcpsession.FromContext(ctx); ok {
		capabilities := mcpsession.ClientCapabilities{}
		if _, has := params.Capabilities["sampling"]; has {
			capabilities.Sampling = true
		}
		if _, has := params.Capabilities["elicitation"]; has {
			capabilities.Elicitation = true
		}
		if _, has := params.Capabilities["roots"]; has {
			capabilities.Roots = true
		}
		sess.SetClientCapabilities(capabilities)
	}

	serverCapabilities := map[string]interface{}{
		"tools":     map[string]interface{}{"listChanged": true},
		"resources": map[string]interface{}{"listChanged": true},
		"prompts":   map[string]interface{}{"listChanged": true},
		"logging":   map[string]interface{}{},
	}
	if d.Completion != nil {
		serverCapabilities["completions"] = map[string]interface{}{}
	}
	return map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities":    serverCapabilities,
		"serverInfo":      d.Info,
	}, nil
}

func (d *Dispatcher) toolsList(ctx context.Context) interface{} {
	tools := []MCPTool{}
	if d.Tools != nil {
		for _, meta := range d.Registry.ListTools(d.Tools.Owner()) {
			tools = append(tools, asMCPTool(meta))
		}
	}
	return map[string]interface{}{"tools": tools}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (d *Dispatcher) toolsCall(ctx context.Context, request *jsonrpc.Request) (interface{}, *jsonrpc.InnerError) {
	params := &toolCallParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		return nil, invalidParams(request.Id, fmt.Errorf("failed to parse tools/call params: %w", err))
	}
	if params.Name == "" {
		return nil, invalidParams(request.Id, fmt.Errorf("tools/call requires a tool name"))
	}
	if d.Tools == nil {
		return toolCallError(fmt.Sprintf("Unknown tool '%s'", params.Name)), nil
	}
	meta, ok := d.Registry.Tool(d.Tools.Owner(), params.Name)
	if !ok {
		return toolCallError(fmt.Sprintf("Unknown tool '%s'", params.Name)), nil
	}
	arguments, err := decodeArguments(params.Arguments)
	if err != nil {
		return nil, invalidParams(request.Id, fmt.Errorf("failed to parse tool arguments: %w", err))
	}
	enriched, err := mcpregistry.EnrichArguments(meta, arguments)
	if err != nil {
		return toolCallError(err.Error()), nil
	}
	result, isError, err := d.Tools.InvokeTool(ctx, params.Name, enriched)
	if err != nil {
		return toolCallError(fmt.Sprintf("Tool call '%s' failed: %s", params.Name, err.Error())), nil
	}
	if isError {
		return ToolCallResult{Content: result, IsError: true}, nil
	}
	return asToolCallResult(result), nil
}

// asToolCallResult normalizes a provider's return value into the MCP
// content-list shape: strings become a single text item, structured values
// are serialized to JSON text.
func asToolCallResult(result interface{}) ToolCallResult {
	switch actual := result.(type) {
	case string:
		return ToolCallResult{Content: NewTextContent(actual), IsError: false}
	case []TextContent:
		return ToolCallResult{Content: actual, IsError: false}
	case nil:
		return ToolCallResult{Content: []TextContent{}, IsError: false}
	default:
		encoded, err := json.Marshal(actual)
		if err != nil {
			return ToolCallResult{Content: NewTextContent(fmt.Sprintf("%v", actual)), IsError: false}
		}
		return ToolCallResult{Content: NewTextContent(string(encoded)), IsError: false}
	}
}

func toolCallError(message string) ToolCallResult {
	return ToolCallResult{Content: NewTextContent(message), IsError: true}
}

func (d *Dispatcher) resourcesList(ctx context.Context) interface{} {
	resources := []MCPResource{}
	if d.Resources != nil {
		for _, meta := range d.Registry.ListResources(d.Resources.Owner()) {
			resources = append(resources, asMCPResource(meta))
		}
	}
	return map[string]interface{}{"resources": resources}
}

type resourceReadParams struct {
	URI string `json:"uri"`
}

func (d *Dispatcher) resourcesRead(ctx context.Context, request *jsonrpc.Request) (interface{}, *jsonrpc.InnerError) {
	params := &resourceReadParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		return nil, invalidParams(request.Id, fmt.Errorf("failed to parse resources/read params: %w", err))
	}
	if params.URI == "" {
		return nil, invalidParams(request.Id, fmt.Errorf("resources/read requires a uri"))
	}
	if d.Resources == nil {
		return nil, invalidParams(request.Id, fmt.Errorf("unknown resource '%s'", params.URI))
	}
	contents, mimeType, err := d.Resources.ReadResource(ctx, params.URI)
	if err != nil {
		return nil, internalError(request.Id, fmt.Errorf("failed to read resource '%s': %w", params.URI, err))
	}
	item := ResourceContents{URI: params.URI, MimeType: mimeType}
	switch actual := contents.(type) {
	case string:
		item.Text = actual
	case []byte:
		item.Blob = base64.StdEncoding.EncodeToString(actual)
	default:
		encoded, err := json.Marshal(actual)
		if err != nil {
			return nil, internalError(request.Id, fmt.Errorf("failed to encode resource '%s': %w", params.URI, err))
		}
		item.Text = string(encoded)
	}
	return map[string]interface{}{"contents": []ResourceContents{item}}, nil
}

func (d *Dispatcher) promptsList(ctx context.Context) interface{} {
	prompts := []MCPPrompt{}
	if d.Prompts != nil {
		for _, meta := range d.Registry.ListPrompts(d.Prompts.Owner()) {
			prompts = append(prompts, asMCPPrompt(meta))
		}
	}
	return map[string]interface{}{"prompts": prompts}
}

type promptGetParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (d *Dispatcher) promptsGet(ctx context.Context, request *jsonrpc.Request) (interface{}, *jsonrpc.InnerError) {
	params := &promptGetParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		return nil, invalidParams(request.Id, fmt.Errorf("failed to parse prompts/get params: %w", err))
	}
	if params.Name == "" {
		return nil, invalidParams(request.Id, fmt.Errorf("prompts/get requires a prompt name"))
	}
	if d.Prompts == nil {
		return nil, invalidParams(request.Id, fmt.Errorf("unknown prompt '%s'", params.Name))
	}
	meta, ok := d.Registry.Prompt(d.Prompts.Owner(), params.Name)
	if !ok {
		return nil, invalidParams(request.Id, fmt.Errorf("unknown prompt '%s'", params.Name))
	}
	arguments, err := decodeArguments(params.Arguments)
	if err != nil {
		return nil, invalidParams(request.Id, fmt.Errorf("failed to parse prompt arguments: %w", err))
	}
	enriched, err := mcpregistry.EnrichArguments(meta, arguments)
	if err != nil {
		return nil, invalidParams(request.Id, err)
	}
	messages, err := d.Prompts.GetPrompt(ctx, params.Name, enriched)
	if err != nil {
		return nil, internalError(request.Id, fmt.Errorf("failed to render prompt '%s': %w", params.Name, err))
	}
	return map[string]interface{}{
		"description": meta.Description,
		"messages":    messages,
	}, nil
}

type completeParams struct {
	Ref      map[string]interface{} `json:"ref"`
	Argument map[string]interface{} `json:"argument"`
}

func (d *Dispatcher) completionComplete(ctx context.Context, request *jsonrpc.Request) (interface{}, *jsonrpc.InnerError) {
	if d.Completion == nil {
		return nil, &jsonrpc.InnerError{Code: jsonrpc.MethodNotFound, Message: "Method not found", Data: request.Method}
	}
	params := &completeParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		return nil, invalidParams(request.Id, fmt.Errorf("failed to parse completion/complete params: %w", err))
	}
	result, err := d.Completion.Complete(ctx, params.Ref, params.Argument)
	if err != nil {
		return nil, internalError(request.Id, fmt.Errorf("completion failed: %w", err))
	}
	if completion, ok := result.(*CompleteResult); ok {
		return completion, nil
	}
	return result, nil
}

type setLevelParams struct {
	Level string `json:"level"`
}

func (d *Dispatcher) loggingSetLevel(ctx context.Context, request *jsonrpc.Request) (interface{}, *jsonrpc.InnerError) {
	params := &setLevelParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		return nil, invalidParams(request.Id, fmt.Errorf("failed to parse logging/setLevel params: %w", err))
	}
	if params.Level == "" {
		return nil, invalidParams(request.Id, fmt.Errorf("logging/setLevel requires a level"))
	}
	sess, ok := mcpsession.FromContext(ctx)
	if !ok {
		return nil, internalError(request.Id, fmt.Errorf("no active session"))
	}
	sess.SetMinimumLogLevel(mcpsession.ParseLogLevel(params.Level))
	return struct{}{}, nil
}

package dispatch

import (
	"encoding/json"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/mcpregistry"
)

// MCPTool is the wire shape of one tools/list entry.
type MCPTool struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	InputSchema  *jsonrpc.Schema        `json:"inputSchema"`
	OutputSchema *jsonrpc.Schema        `json:"outputSchema,omitempty"`
	Annotations  map[string]interface{} `json:"annotations,omitempty"`
}

// MCPResource is the wire shape of one resources/list entry.
type MCPResource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// MCPPrompt is the wire shape of one prompts/list entry.
type MCPPrompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument describes one prompt template argument.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// ResourceContents is one resources/read content item. Text and Blob are
// mutually exclusive; Blob carries base64-encoded bytes.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// CompleteResult is the completion/complete result envelope.
type CompleteResult struct {
	Completion Completion `json:"completion"`
}

// Completion carries completion values plus paging hints.
type Completion struct {
	Values  []string `json:"values"`
	Total   *int     `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

func asMCPTool(meta *mcpregistry.Meta) MCPTool {
	inputSchema := meta.InputSchema
	if inputSchema == nil {
		inputSchema = &jsonrpc.Schema{Type: jsonrpc.SchemaTypeObject}
	}
	return MCPTool{
		Name:         meta.Name,
		Description:  meta.Description,
		InputSchema:  inputSchema,
		OutputSchema: meta.OutputSchema,
		Annotations:  meta.Annotations,
	}
}

func asMCPResource(meta *mcpregistry.Meta) MCPResource {
	return MCPResource{
		URI:         meta.URI,
		Name:        meta.Name,
		Description: meta.Description,
		MimeType:    meta.MimeType,
	}
}

func asMCPPrompt(meta *mcpregistry.Meta) MCPPrompt {
	prompt := MCPPrompt{Name: meta.Name, Description: meta.Description}
	if meta.InputSchema == nil {
		return prompt
	}
	required := make(map[string]bool, len(meta.InputSchema.Required))
	for _, name := range meta.InputSchema.Required {
		required[name] = true
	}
	for name, property := range meta.InputSchema.Properties {
		prompt.Arguments = append(prompt.Arguments, PromptArgument{
			Name:        name,
			Description: property.Description,
			Required:    required[name],
		})
	}
	return prompt
}

// decodeArguments decodes a request's "arguments" object, tolerating a
// missing or null value.
func decodeArguments(raw json.RawMessage) (map[string]interface{}, error) {
	args := map[string]interface{}{}
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

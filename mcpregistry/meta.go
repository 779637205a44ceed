package mcpregistry

import "github.com/viant/mcprt"

// Meta describes one callable surface: a tool, a resource or a prompt.
// Resource adds URI/MimeType, prompt adds Messages; tools use neither.
type Meta struct {
	Name         string
	Description  string
	InputSchema  *jsonrpc.Schema
	OutputSchema *jsonrpc.Schema
	Annotations  map[string]interface{}
	IsAsync      bool
	IsThrowing   bool

	// Resource-only
	URI      string
	MimeType string

	// Prompt-only
	Messages interface{}
}

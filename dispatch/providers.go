package dispatch

import "context"

// ToolProvider is the external collaborator that actually runs a tool.
// Implementations register their metadata into a mcpregistry.Registry
// under Owner() and are invoked by name from tools/call.
type ToolProvider interface {
	Owner() interface{}
	InvokeTool(ctx context.Context, name string, arguments map[string]interface{}) (result interface{}, isError bool, err error)
}

// ResourceProvider serves resources/read for resources registered under
// Owner() in a mcpregistry.Registry.
type ResourceProvider interface {
	Owner() interface{}
	ReadResource(ctx context.Context, uri string) (contents interface{}, mimeType string, err error)
}

// PromptProvider serves prompts/get for prompts registered under Owner()
// in a mcpregistry.Registry.
type PromptProvider interface {
	Owner() interface{}
	GetPrompt(ctx context.Context, name string, arguments map[string]interface{}) (messages interface{}, err error)
}

// CompletionProvider serves completion/complete, an optional collaborator.
type CompletionProvider interface {
	Complete(ctx context.Context, ref map[string]interface{}, argument map[string]interface{}) (result interface{}, err error)
}

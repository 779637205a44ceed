package dispatch

// TextContent is a single `{"type":"text","text":"..."}` content item, the
// shape every tool-call error and most tool results use.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTextContent builds a single-item text content list.
func NewTextContent(text string) []TextContent {
	return []TextContent{{Type: "text", Text: text}}
}

// ToolCallResult is the result shape for a successful or failed tools/call.
type ToolCallResult struct {
	Content interface{} `json:"content"`
	IsError bool        `json:"isError"`
}

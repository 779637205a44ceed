package sse

import "fmt"

// frameSSE formats the data for SSE. Every frame terminates with a blank
// line ("\n\n") per the SSE grammar.
func frameSSE(data []byte) []byte {
	expanded := fmt.Sprintf("event: message\ndata: %s\n\n", string(data))
	return []byte(expanded)
}

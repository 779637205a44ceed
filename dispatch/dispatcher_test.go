package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/mcpregistry"
	"github.com/viant/mcprt/mcpsession"
	"github.com/viant/mcprt/transport"
	base "github.com/viant/mcprt/transport/server/base"
)

type calcServer struct{}

type calcTools struct {
	owner *calcServer
}

func (t *calcTools) Owner() interface{} { return t.owner }

func (t *calcTools) InvokeTool(_ context.Context, name string, arguments map[string]interface{}) (interface{}, bool, error) {
	switch name {
	case "add":
		a, _ := arguments["a"].(float64)
		b, _ := arguments["b"].(float64)
		return fmt.Sprintf("%v", a+b), false, nil
	case "fail":
		return nil, false, fmt.Errorf("boom")
	}
	return nil, false, fmt.Errorf("unexpected tool %s", name)
}

func intSchema() *jsonrpc.Schema {
	return &jsonrpc.Schema{Type: jsonrpc.SchemaTypeInteger}
}

func newTestDispatcher() (*Dispatcher, *calcTools) {
	registry := mcpregistry.New()
	tools := &calcTools{owner: &calcServer{}}
	registry.RegisterTool(tools.Owner(), &mcpregistry.Meta{
		Name: "add",
		InputSchema: &jsonrpc.Schema{
			Type: jsonrpc.SchemaTypeObject,
			Properties: map[string]*jsonrpc.Schema{
				"a": intSchema(),
				"b": intSchema(),
			},
			Required: []string{"a", "b"},
		},
	})
	d := New(ServerInfo{Name: "calc", Version: "1.0.0"}, registry)
	d.Tools = tools
	return d, tools
}

func newTestSession(t *testing.T, d *Dispatcher) (*base.Session, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	newHandler := func(ctx context.Context, _ transport.Transport) transport.Handler { return d }
	return base.NewSession(context.Background(), "", out, newHandler), out
}

func handle(t *testing.T, d *Dispatcher, payload string) []byte {
	t.Helper()
	session, _ := newTestSession(t, d)
	handler := base.NewHandler()
	handler.Sessions.Put(session.Id, session)
	ctx := context.WithValue(context.Background(), jsonrpc.SessionKey, session)
	var output bytes.Buffer
	handler.HandleMessage(ctx, session, []byte(payload), &output)
	return output.Bytes()
}

func TestDispatcher_BatchWithNotification(t *testing.T) {
	d, _ := newTestDispatcher()
	got := handle(t, d, `[{"jsonrpc":"2.0","id":1,"method":"ping"},{"jsonrpc":"2.0","method":"notifications/initialized"}]`)

	var response map[string]interface{}
	assert.Nil(t, json.Unmarshal(got, &response))
	assert.Equal(t, float64(1), response["id"])
	assert.Equal(t, "2.0", response["jsonrpc"])
	assert.Equal(t, map[string]interface{}{}, response["result"])
	_, hasError := response["error"]
	assert.False(t, hasError)
}

func TestDispatcher_UnknownMethod(t *testing.T) {
	d, _ := newTestDispatcher()
	got := handle(t, d, `{"jsonrpc":"2.0","id":"x","method":"does/not/exist"}`)

	var response map[string]interface{}
	assert.Nil(t, json.Unmarshal(got, &response))
	assert.Equal(t, "x", response["id"])
	errorBody, ok := response["error"].(map[string]interface{})
	if assert.True(t, ok) {
		assert.Equal(t, float64(-32601), errorBody["code"])
		assert.Equal(t, "Method not found", errorBody["message"])
	}
}

func TestDispatcher_ToolCallMissingRequiredParameter(t *testing.T) {
	d, _ := newTestDispatcher()
	got := handle(t, d, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"add","arguments":{"a":1}}}`)

	// Content is kept as raw wire bytes: decoding it into generic maps and
	// re-marshaling would sort the keys and lose the wire field order.
	var response struct {
		Id     interface{} `json:"id"`
		Result struct {
			IsError bool            `json:"isError"`
			Content json.RawMessage `json:"content"`
		} `json:"result"`
	}
	assert.Nil(t, json.Unmarshal(got, &response))
	assert.Equal(t, float64(7), response.Id)
	assert.True(t, response.Result.IsError)
	content, err := json.Marshal(response.Result.Content)
	assert.Nil(t, err)
	assert.Equal(t, `[{"type":"text","text":"Missing required parameter 'b'"}]`, string(content))
}

func TestDispatcher_ToolCall(t *testing.T) {
	d, _ := newTestDispatcher()
	got := handle(t, d, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"add","arguments":{"a":1,"b":2}}}`)

	var response struct {
		Result struct {
			IsError bool          `json:"isError"`
			Content []TextContent `json:"content"`
		} `json:"result"`
	}
	assert.Nil(t, json.Unmarshal(got, &response))
	assert.False(t, response.Result.IsError)
	if assert.Equal(t, 1, len(response.Result.Content)) {
		assert.Equal(t, "3", response.Result.Content[0].Text)
	}
}

func TestDispatcher_ToolCallUnknownTool(t *testing.T) {
	d, _ := newTestDispatcher()
	got := handle(t, d, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope","arguments":{}}}`)

	var response struct {
		Result struct {
			IsError bool          `json:"isError"`
			Content []TextContent `json:"content"`
		} `json:"result"`
	}
	assert.Nil(t, json.Unmarshal(got, &response))
	assert.True(t, response.Result.IsError)
	assert.Equal(t, "Unknown tool 'nope'", response.Result.Content[0].Text)
}

func TestDispatcher_ToolsList(t *testing.T) {
	d, _ := newTestDispatcher()
	got := handle(t, d, `{"jsonrpc":"2.0","id":4,"method":"tools/list"}`)

	var response struct {
		Result struct {
			Tools []MCPTool `json:"tools"`
		} `json:"result"`
	}
	assert.Nil(t, json.Unmarshal(got, &response))
	if assert.Equal(t, 1, len(response.Result.Tools)) {
		assert.Equal(t, "add", response.Result.Tools[0].Name)
		assert.NotNil(t, response.Result.Tools[0].InputSchema)
	}
}

func TestDispatcher_Initialize(t *testing.T) {
	d, _ := newTestDispatcher()
	got := handle(t, d, `{"jsonrpc":"2.0","id":5,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{"sampling":{}},"clientInfo":{"name":"test","version":"0.0.1"}}}`)

	var response struct {
		Result struct {
			ProtocolVersion string     `json:"protocolVersion"`
			ServerInfo      ServerInfo `json:"serverInfo"`
		} `json:"result"`
	}
	assert.Nil(t, json.Unmarshal(got, &response))
	assert.Equal(t, ProtocolVersion, response.Result.ProtocolVersion)
	assert.Equal(t, "calc", response.Result.ServerInfo.Name)
}

func TestDispatcher_LoggingSetLevel(t *testing.T) {
	d, _ := newTestDispatcher()
	session, _ := newTestSession(t, d)
	ctx := context.WithValue(context.Background(), jsonrpc.SessionKey, session)

	request := &jsonrpc.Request{Jsonrpc: "2.0", Id: int64(9), Method: "logging/setLevel", Params: json.RawMessage(`{"level":"error"}`)}
	response := &jsonrpc.Response{}
	d.Serve(ctx, request, response)

	assert.Nil(t, response.Error)
	sess, ok := d.Sessions.Get(session.Id)
	if assert.True(t, ok) {
		assert.Equal(t, mcpsession.LogLevelError, sess.MinimumLogLevel)
	}
}

func TestDispatcher_EmptyBatchRejected(t *testing.T) {
	d, _ := newTestDispatcher()
	session, out := newTestSession(t, d)
	handler := base.NewHandler()
	handler.Sessions.Put(session.Id, session)
	ctx := context.WithValue(context.Background(), jsonrpc.SessionKey, session)
	var output bytes.Buffer
	handler.HandleMessage(ctx, session, []byte(`[]`), &output)

	assert.Equal(t, 0, output.Len())
	assert.Contains(t, out.String(), `-32600`)
}

package mcpclient

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/dispatch"
	"github.com/viant/mcprt/mcpregistry"
)

type loopbackServer struct{}

type loopbackTools struct {
	owner *loopbackServer
}

func (t *loopbackTools) Owner() interface{} { return t.owner }

func (t *loopbackTools) InvokeTool(_ context.Context, name string, arguments map[string]interface{}) (interface{}, bool, error) {
	value, _ := arguments["value"].(string)
	return "echo:" + value, false, nil
}

// loopbackTransport runs requests straight into a dispatcher, standing in
// for a live transport in facade tests. It allocates monotonically
// increasing ids like every transport client does.
type loopbackTransport struct {
	dispatcher *dispatch.Dispatcher
	counter    uint64
}

func (t *loopbackTransport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	request.Id = int(atomic.AddUint64(&t.counter, 1))
	response := &jsonrpc.Response{}
	t.dispatcher.Serve(ctx, request, response)
	return response, nil
}

func (t *loopbackTransport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	t.dispatcher.OnNotification(ctx, notification)
	return nil
}

func newLoopback() *loopbackTransport {
	registry := mcpregistry.New()
	tools := &loopbackTools{owner: &loopbackServer{}}
	registry.RegisterTool(tools.Owner(), &mcpregistry.Meta{
		Name:        "echo",
		Description: "echoes its input",
		InputSchema: &jsonrpc.Schema{
			Type: jsonrpc.SchemaTypeObject,
			Properties: map[string]*jsonrpc.Schema{
				"value": {Type: jsonrpc.SchemaTypeString},
			},
			Required: []string{"value"},
		},
	})
	dispatcher := dispatch.New(dispatch.ServerInfo{Name: "loopback", Version: "0.0.1"}, registry)
	dispatcher.Tools = tools
	return &loopbackTransport{dispatcher: dispatcher}
}

func TestClient_InitializeAndCall(t *testing.T) {
	client := New(newLoopback(), WithClientInfo(ClientInfo{Name: "test", Version: "1.0.0"}), WithCapability("sampling"))

	result, err := client.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dispatch.ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "loopback", client.ServerInfo().Name)

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, len(tools))
	assert.Equal(t, "echo", tools[0].Name)

	callResult, err := client.CallTool(context.Background(), "echo", map[string]interface{}{"value": "hi"})
	require.NoError(t, err)
	assert.False(t, callResult.IsError)
	content, err := json.Marshal(callResult.Content)
	require.NoError(t, err)
	assert.Contains(t, string(content), "echo:hi")
}

func TestClient_Ping(t *testing.T) {
	client := New(newLoopback())
	assert.NoError(t, client.Ping(context.Background()))
}

func TestClient_MethodRejected(t *testing.T) {
	client := New(newLoopback())
	err := client.call(context.Background(), "does/not/exist", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Method not found")
}

func TestHandler_AnswersPing(t *testing.T) {
	handler := NewHandler()
	request := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Id: int64(1), Method: "ping"}
	response := &jsonrpc.Response{}
	handler.Serve(context.Background(), request, response)
	assert.Nil(t, response.Error)
	assert.Equal(t, "{}", string(response.Result))
}

func TestHandler_RoutesProgress(t *testing.T) {
	var gotToken interface{}
	var gotProgress float64
	handler := NewHandler(WithProgressHandler(func(token interface{}, progress float64, total *float64, message string) {
		gotToken = token
		gotProgress = progress
	}))
	params, _ := json.Marshal(map[string]interface{}{"progressToken": "tok", "progress": 0.5})
	handler.OnNotification(context.Background(), &jsonrpc.Notification{
		Jsonrpc: jsonrpc.Version,
		Method:  "notifications/progress",
		Params:  params,
	})
	assert.Equal(t, "tok", gotToken)
	assert.Equal(t, 0.5, gotProgress)
}

func TestHandler_SamplingWithoutHandler(t *testing.T) {
	handler := NewHandler()
	request := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Id: int64(2), Method: "sampling/createMessage", Params: json.RawMessage(`{}`)}
	response := &jsonrpc.Response{}
	handler.Serve(context.Background(), request, response)
	require.NotNil(t, response.Error)
	assert.Equal(t, jsonrpc.MethodNotFound, response.Error.Code)
}

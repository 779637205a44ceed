package tcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/transport"
	clienttcp "github.com/viant/mcprt/transport/client/tcp"
)

type echoHandler struct{}

func (h *echoHandler) Serve(_ context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = jsonrpc.Version
	response.Result = request.Params
}

func (h *echoHandler) OnNotification(_ context.Context, _ *jsonrpc.Notification) {}

func TestServer_RoundTrip(t *testing.T) {
	server := New(context.Background(), func(ctx context.Context, _ transport.Transport) transport.Handler {
		return &echoHandler{}
	}, WithAdvertise(false), WithAcceptLocalOnly(true), WithPreferIPv4(true))
	go func() {
		_ = server.ListenAndServe()
	}()
	defer server.Stop()

	var address string
	for i := 0; i < 50; i++ {
		if addr := server.Addr(); addr != nil {
			address = addr.String()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NotEmpty(t, address)

	client, err := clienttcp.New(context.Background(), address, clienttcp.WithRunTimeout(5*time.Second))
	require.NoError(t, err)
	defer client.Close()

	request, err := jsonrpc.NewRequest("echo", map[string]interface{}{"value": 42})
	require.NoError(t, err)
	response, err := client.Send(context.Background(), request)
	require.NoError(t, err)
	require.Nil(t, response.Error)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(response.Result, &result))
	assert.Equal(t, float64(42), result["value"])
}

func TestServer_MultipleConnections(t *testing.T) {
	server := New(context.Background(), func(ctx context.Context, _ transport.Transport) transport.Handler {
		return &echoHandler{}
	}, WithAdvertise(false), WithAcceptLocalOnly(true), WithPreferIPv4(true))
	go func() {
		_ = server.ListenAndServe()
	}()
	defer server.Stop()

	var address string
	for i := 0; i < 50; i++ {
		if addr := server.Addr(); addr != nil {
			address = addr.String()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NotEmpty(t, address)

	for i := 0; i < 3; i++ {
		client, err := clienttcp.New(context.Background(), address, clienttcp.WithRunTimeout(5*time.Second))
		require.NoError(t, err)
		request, err := jsonrpc.NewRequest("echo", map[string]interface{}{"conn": i})
		require.NoError(t, err)
		response, err := client.Send(context.Background(), request)
		require.NoError(t, err)
		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(response.Result, &result))
		assert.Equal(t, float64(i), result["conn"], fmt.Sprintf("connection %d", i))
		_ = client.Close()
	}
}

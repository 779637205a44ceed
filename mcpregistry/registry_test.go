package mcpregistry

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/viant/mcprt"
	"testing"
)

type fakeServer struct{}

func TestRegistry_RegisterAndList(t *testing.T) {
	r := New()
	owner := &fakeServer{}

	r.RegisterTool(owner, &Meta{Name: "add", Description: "adds two numbers"})
	r.RegisterTool(owner, &Meta{Name: "sub", Description: "subtracts two numbers"})
	// last-writer-wins, order preserved
	r.RegisterTool(owner, &Meta{Name: "add", Description: "adds two numbers (updated)"})

	tools := r.ListTools(owner)
	assert.Equal(t, 2, len(tools))
	assert.Equal(t, "add", tools[0].Name)
	assert.Equal(t, "adds two numbers (updated)", tools[0].Description)
	assert.Equal(t, "sub", tools[1].Name)

	_, ok := r.Tool(owner, "missing")
	assert.False(t, ok)
}

func TestRegistry_DistinctOwnerTypes(t *testing.T) {
	r := New()
	type otherServer struct{}

	r.RegisterTool(&fakeServer{}, &Meta{Name: "only-on-fake"})
	assert.Equal(t, 0, len(r.ListTools(&otherServer{})))
	assert.Equal(t, 1, len(r.ListTools(&fakeServer{})))
}

func TestEnrichArguments(t *testing.T) {
	schema := &jsonrpc.Schema{
		Type: jsonrpc.SchemaTypeObject,
		Properties: map[string]*jsonrpc.Schema{
			"a": {Type: jsonrpc.SchemaTypeInteger},
			"b": {Type: jsonrpc.SchemaTypeInteger, Default: json.RawMessage(`0`)},
		},
		Required: []string{"a"},
	}
	meta := &Meta{Name: "add", InputSchema: schema}

	t.Run("fills default for missing optional", func(t *testing.T) {
		out, err := EnrichArguments(meta, map[string]interface{}{"a": 1})
		assert.NoError(t, err)
		assert.Equal(t, 1, out["a"])
		assert.EqualValues(t, 0, out["b"])
	})

	t.Run("missing required parameter", func(t *testing.T) {
		_, err := EnrichArguments(meta, map[string]interface{}{})
		assert.Error(t, err)
		assert.Equal(t, "Missing required parameter 'a'", err.Error())
	})

	t.Run("coerces string to integer", func(t *testing.T) {
		out, err := EnrichArguments(meta, map[string]interface{}{"a": "3"})
		assert.NoError(t, err)
		assert.EqualValues(t, 3, out["a"])
	})

	t.Run("idempotent", func(t *testing.T) {
		once, err := EnrichArguments(meta, map[string]interface{}{"a": 1})
		assert.NoError(t, err)
		twice, err := EnrichArguments(meta, once)
		assert.NoError(t, err)
		assert.Equal(t, once, twice)
	})

	t.Run("rejects unparsable coercion", func(t *testing.T) {
		_, err := EnrichArguments(meta, map[string]interface{}{"a": "not-a-number"})
		assert.Error(t, err)
	})
}

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/viant/mcprt"
)

// pluginManifest is the /.well-known/ai-plugin.json shape; the callback id
// is configuration, never a constant.
type pluginManifest struct {
	SchemaVersion       string            `json:"schema_version"`
	NameForHuman        string            `json:"name_for_human"`
	NameForModel        string            `json:"name_for_model"`
	DescriptionForHuman string            `json:"description_for_human,omitempty"`
	DescriptionForModel string            `json:"description_for_model,omitempty"`
	Auth                map[string]string `json:"auth"`
	API                 map[string]string `json:"api"`
	LegalInfoURL        string            `json:"legal_info_url,omitempty"`
	CallbackID          string            `json:"callback_id,omitempty"`
}

func (r *Router) handlePluginManifest(w http.ResponseWriter, request *http.Request) {
	base := requestBaseURL(request)
	manifest := &pluginManifest{
		SchemaVersion:       "v1",
		NameForHuman:        r.dispatcher.Info.Name,
		NameForModel:        strings.ToLower(r.dispatcher.Info.Name),
		DescriptionForHuman: r.dispatcher.Info.Description,
		DescriptionForModel: r.dispatcher.Info.Description,
		Auth:                map[string]string{"type": "none"},
		API: map[string]string{
			"type": "openapi",
			"url":  base + "/openapi.json",
		},
		CallbackID: r.PluginCallbackID,
	}
	writeJSON(w, http.StatusOK, manifest)
}

// handleOpenAPISpec emits a minimal OpenAPI document enumerating the
// registered tools as POST operations under /<server>/<tool-name>.
func (r *Router) handleOpenAPISpec(w http.ResponseWriter, request *http.Request) {
	serverPath := "/" + strings.ToLower(r.dispatcher.Info.Name)
	paths := map[string]interface{}{}
	if r.dispatcher.Tools != nil {
		for _, meta := range r.dispatcher.Registry.ListTools(r.dispatcher.Tools.Owner()) {
			paths[serverPath+"/"+meta.Name] = map[string]interface{}{
				"post": map[string]interface{}{
					"operationId": meta.Name,
					"summary":     meta.Description,
					"requestBody": map[string]interface{}{
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": meta.InputSchema,
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "tool result"},
					},
				},
			}
		}
	}
	document := map[string]interface{}{
		"openapi": "3.1.0",
		"info": map[string]interface{}{
			"title":       r.dispatcher.Info.Name,
			"version":     r.dispatcher.Info.Version,
			"description": r.dispatcher.Info.Description,
		},
		"servers": []map[string]string{{"url": requestBaseURL(request)}},
		"paths":   paths,
	}
	writeJSON(w, http.StatusOK, document)
}

// handleToolCall serves POST /<server>/<tool-name>: the body is a bare JSON
// object of arguments, routed through the regular tools/call dispatch.
func (r *Router) handleToolCall(w http.ResponseWriter, request *http.Request, toolName string) {
	if request.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	arguments := json.RawMessage("{}")
	if request.Body != nil {
		data, err := io.ReadAll(request.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
			return
		}
		_ = request.Body.Close()
		if len(data) > 0 {
			arguments = data
		}
	}
	params, err := json.Marshal(map[string]interface{}{
		"name":      toolName,
		"arguments": arguments,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to encode tool call: %v", err), http.StatusInternalServerError)
		return
	}
	rpcRequest := &jsonrpc.Request{
		Jsonrpc: jsonrpc.Version,
		Id:      int64(1),
		Method:  "tools/call",
		Params:  params,
	}
	rpcResponse := &jsonrpc.Response{}
	r.dispatcher.Serve(request.Context(), rpcRequest, rpcResponse)
	if rpcResponse.Error != nil {
		writeJSON(w, http.StatusBadRequest, rpcResponse.Error)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rpcResponse.Result)
}

// toolCallPath splits "/<server>/<tool-name>" for the configured server
// name, returning ok=false for any other path shape.
func (r *Router) toolCallPath(path string) (string, bool) {
	serverPrefix := "/" + strings.ToLower(r.dispatcher.Info.Name) + "/"
	if !strings.HasPrefix(strings.ToLower(path), serverPrefix) {
		return "", false
	}
	rest := path[len(serverPrefix):]
	if rest == "" || strings.ContainsRune(rest, '/') {
		return "", false
	}
	return rest, true
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

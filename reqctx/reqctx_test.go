package reqctx

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/mcpsession"
	base "github.com/viant/mcprt/transport/server/base"
	"testing"
)

func TestNewInfo_ProgressToken(t *testing.T) {
	params, _ := json.Marshal(map[string]interface{}{
		"_meta": map[string]interface{}{"progressToken": "tok-1"},
	})
	request := &jsonrpc.Request{Id: 1, Method: "tools/call", Params: params}
	info := NewInfo(request)
	assert.Equal(t, "tools/call", info.Method)
	assert.Equal(t, "tok-1", info.ProgressToken)
}

func TestNewInfo_NoMeta(t *testing.T) {
	request := &jsonrpc.Request{Id: 1, Method: "ping"}
	info := NewInfo(request)
	assert.Nil(t, info.ProgressToken)
}

func TestReportProgress_NoActiveSession(t *testing.T) {
	err := ReportProgress(context.Background(), 0.5, nil, "")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestReportProgress_NoTokenIsNoop(t *testing.T) {
	buf := &bytes.Buffer{}
	sess := mcpsession.New(&base.Session{Id: "s1", Writer: buf})
	ctx := mcpsession.WithContext(context.Background(), sess)
	ctx = WithInfo(ctx, &Info{Method: "tools/call"})
	err := ReportProgress(ctx, 0.5, nil, "")
	assert.NoError(t, err)
	assert.Equal(t, 0, buf.Len())
}

func TestReportProgress_EmitsWhenTokenPresent(t *testing.T) {
	buf := &bytes.Buffer{}
	sess := mcpsession.New(&base.Session{Id: "s1", Writer: buf})
	ctx := mcpsession.WithContext(context.Background(), sess)
	ctx = WithInfo(ctx, &Info{Method: "tools/call", ProgressToken: "tok-1"})
	total := 10.0
	err := ReportProgress(ctx, 3, &total, "working")
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "notifications/progress")
	assert.Contains(t, buf.String(), "tok-1")
}

func TestSample_RejectsWithoutCapability(t *testing.T) {
	sess := mcpsession.New(&base.Session{Id: "s1"})
	ctx := mcpsession.WithContext(context.Background(), sess)
	_, err := Sample(ctx, map[string]interface{}{})
	assert.ErrorIs(t, err, ErrClientHasNoSamplingSupport)
}

package oauth

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcprt/mcpsession"
	base "github.com/viant/mcprt/transport/server/base"
)

func TestProxy_ForwardsAndStripsHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/userinfo", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-Forwarded-For"))
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Access-Control-Allow-Origin", "https://upstream")
		w.Header().Set("X-Custom", "kept")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"sub":"u1"}`))
		_ = gz.Close()
	}))
	defer upstream.Close()

	proxy := NewProxy(&Config{Issuer: upstream.URL}, nil)
	request := httptest.NewRequest(http.MethodGet, "/userinfo", nil)
	request.Header.Set("Authorization", "Bearer tok")
	request.Header.Set("X-Forwarded-For", "1.2.3.4")
	recorder := httptest.NewRecorder()
	proxy.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, `{"sub":"u1"}`, recorder.Body.String())
	assert.Empty(t, recorder.Header().Get("Content-Encoding"))
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "kept", recorder.Header().Get("X-Custom"))
}

func TestProxy_RewritesRelativeLocationWithoutFollowing(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/authorize" {
			w.Header().Set("Location", "/login?state=abc")
			w.WriteHeader(http.StatusFound)
			return
		}
		t.Fatalf("redirect must not be followed, got %s", r.URL.Path)
	}))
	defer upstream.Close()

	proxy := NewProxy(&Config{Issuer: upstream.URL}, nil)
	request := httptest.NewRequest(http.MethodGet, "/authorize?client_id=c1", nil)
	recorder := httptest.NewRecorder()
	proxy.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, upstream.URL+"/login?state=abc", recorder.Header().Get("Location"))
}

func TestProxy_BindsTokenToSession(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "grant_type")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at-1","id_token":"idt-1","expires_in":3600,"token_type":"Bearer"}`)
	}))
	defer upstream.Close()

	sessions := mcpsession.NewStore()
	sess := sessions.GetOrCreate("sess-1", &base.Session{Id: "sess-1"})

	proxy := NewProxy(&Config{Issuer: upstream.URL}, sessions)
	request := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader("grant_type=authorization_code&code=abc"))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Mcp-Session-Id", "sess-1")
	recorder := httptest.NewRecorder()
	proxy.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "at-1", sess.Token())
	assert.True(t, sess.TokenValid(time.Now()))

	found, ok := sessions.SessionForToken("at-1")
	if assert.True(t, ok) {
		assert.Equal(t, "sess-1", found.Id)
	}
}

func TestProxy_Handles(t *testing.T) {
	proxy := NewProxy(&Config{Issuer: "https://idp"}, nil)
	assert.True(t, proxy.Handles("/authorize"))
	assert.True(t, proxy.Handles("/oauth/token"))
	assert.True(t, proxy.Handles("/oauth/register"))
	assert.True(t, proxy.Handles("/userinfo"))
	assert.True(t, proxy.Handles("/.well-known/jwks.json"))
	assert.True(t, proxy.Handles("/.well-known/openid-configuration"))
	assert.False(t, proxy.Handles("/mcp"))
	assert.False(t, proxy.Handles("/sse"))
}

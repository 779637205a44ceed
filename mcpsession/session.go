package mcpsession

import (
	"context"
	"github.com/viant/mcprt/transport/server/base"
	"sync"
	"time"
)

// LogLevel mirrors the MCP logging/setLevel level vocabulary, ordered from
// most to least verbose.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelNotice
	LogLevelWarning
	LogLevelError
	LogLevelCritical
	LogLevelAlert
	LogLevelEmergency
)

var levelNames = map[string]LogLevel{
	"debug":     LogLevelDebug,
	"info":      LogLevelInfo,
	"notice":    LogLevelNotice,
	"warning":   LogLevelWarning,
	"error":     LogLevelError,
	"critical":  LogLevelCritical,
	"alert":     LogLevelAlert,
	"emergency": LogLevelEmergency,
}

// ParseLogLevel maps a wire-level log level name onto LogLevel, defaulting
// to LogLevelInfo for an unrecognized name.
func ParseLogLevel(name string) LogLevel {
	if lvl, ok := levelNames[name]; ok {
		return lvl
	}
	return LogLevelInfo
}

// ClientCapabilities is the subset of a client's declared `initialize`
// capabilities this runtime acts on.
type ClientCapabilities struct {
	Sampling   bool
	Elicitation bool
	Roots      bool
}

// Session extends the transport-level base.Session with the MCP-level
// identity and state the protocol layer needs: cached OAuth token/userinfo,
// negotiated client capabilities, and the session's logging filter. The
// embedded *base.Session already supplies the server->client continuation
// table (its RoundTrips ring buffer) and the SSE/TCP/stdio write path.
type Session struct {
	*base.Session

	mux sync.Mutex

	AccessToken       string
	AccessTokenExpiry time.Time
	IDToken           string
	UserInfo          map[string]interface{}

	ClientCapabilities ClientCapabilities
	MinimumLogLevel    LogLevel
}

// New wraps an existing transport session with MCP-level state.
func New(base *base.Session) *Session {
	return &Session{Session: base, MinimumLogLevel: LogLevelInfo}
}

// SetToken stores the cached access token and its expiry under the
// session's own mutator discipline.
func (s *Session) SetToken(accessToken, idToken string, expiry time.Time, userInfo map[string]interface{}) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.AccessToken = accessToken
	s.IDToken = idToken
	s.AccessTokenExpiry = expiry
	s.UserInfo = userInfo
}

// TokenValid reports whether the cached access token exists and has not
// expired; accessTokenExpiry is checked strictly before any use of the
// cached token.
func (s *Session) TokenValid(now time.Time) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.AccessToken == "" {
		return false
	}
	if s.AccessTokenExpiry.IsZero() {
		return true
	}
	return now.Before(s.AccessTokenExpiry)
}

// Token returns the cached access token, empty if none is set.
func (s *Session) Token() string {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.AccessToken
}

// SetClientCapabilities records capabilities negotiated during initialize.
func (s *Session) SetClientCapabilities(c ClientCapabilities) {
	s.mux.Lock()
	s.ClientCapabilities = c
	s.mux.Unlock()
}

// SetMinimumLogLevel mutates the session's log filter, e.g. in response to
// a logging/setLevel request.
func (s *Session) SetMinimumLogLevel(level LogLevel) {
	s.mux.Lock()
	s.MinimumLogLevel = level
	s.mux.Unlock()
}

type sessionKeyType struct{}

var sessionKey = sessionKeyType{}

// WithContext binds sess as the current session in ctx.
func WithContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext retrieves the session bound by WithContext, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok
}

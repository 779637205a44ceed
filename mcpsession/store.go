package mcpsession

import (
	"context"
	"encoding/json"
	"github.com/viant/mcprt"
	"github.com/viant/mcprt/internal/collection"
	"github.com/viant/mcprt/transport/server/base"
	"io"
	"time"
)

// Store is the per-process table of live MCP sessions, mirroring
// base.SessionStore but holding mcpsession.Session (which carries
// OAuth/capability/log-level state on top of the transport session).
type Store struct {
	sessions *collection.SyncMap[string, *Session]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: collection.NewSyncMap[string, *Session]()}
}

// Get returns the session for id, if present.
func (s *Store) Get(id string) (*Session, bool) {
	return s.sessions.Get(id)
}

// GetOrCreate returns the existing session for id, creating and storing one
// around baseSession if none exists yet.
func (s *Store) GetOrCreate(id string, baseSession *base.Session) *Session {
	if existing, ok := s.sessions.Get(id); ok {
		return existing
	}
	sess := New(baseSession)
	s.sessions.Put(id, sess)
	return sess
}

// Put stores sess under id, overwriting any existing entry.
func (s *Store) Put(id string, sess *Session) {
	s.sessions.Put(id, sess)
}

// RegisterChannel attaches a streaming channel to the session identified
// by id, creating the session when none exists yet.
func (s *Store) RegisterChannel(id string, channel io.Writer, baseSession *base.Session) {
	sess := s.GetOrCreate(id, baseSession)
	sess.MarkActiveWithWriter(channel)
}

// RemoveChannel detaches the session's streaming channel; the session
// itself survives until RemoveSession.
func (s *Store) RemoveChannel(id string) {
	if sess, ok := s.sessions.Get(id); ok {
		sess.MarkDetached()
	}
}

// RemoveSession deletes the session identified by id, failing any pending
// server->client continuations it still holds.
func (s *Store) RemoveSession(id string) {
	if sess, ok := s.sessions.Get(id); ok {
		sess.CancelPending()
	}
	s.sessions.Delete(id)
}

// RemoveAll clears every session from the store, used when a transport
// shuts down and all its connections are torn down at once.
func (s *Store) RemoveAll() {
	var ids []string
	s.sessions.Range(func(id string, sess *Session) bool {
		sess.CancelPending()
		ids = append(ids, id)
		return true
	})
	for _, id := range ids {
		s.sessions.Delete(id)
	}
}

// ForEach iterates every session, binding each as the current session in
// ctx before calling block. Results (if block needs to communicate one
// back) are the caller's responsibility; iteration order is arbitrary.
func (s *Store) ForEach(ctx context.Context, block func(ctx context.Context, sess *Session)) {
	s.sessions.Range(func(_ string, sess *Session) bool {
		block(WithContext(ctx, sess), sess)
		return true
	})
}

// SessionForToken returns the first session whose cached access token
// equals token and has not expired.
func (s *Store) SessionForToken(token string) (*Session, bool) {
	var found *Session
	now := time.Now()
	s.sessions.Range(func(_ string, sess *Session) bool {
		if sess.Token() == token && sess.TokenValid(now) {
			found = sess
			return false
		}
		return true
	})
	return found, found != nil
}

// LogMessage is the payload of a notifications/message log event.
type LogMessage struct {
	Level  string      `json:"level"`
	Logger string      `json:"logger,omitempty"`
	Data   interface{} `json:"data"`
}

// BroadcastLog sends msg as a notifications/message event to every session
// whose MinimumLogLevel is at or below the message's level.
func (s *Store) BroadcastLog(ctx context.Context, msg LogMessage) {
	level := ParseLogLevel(msg.Level)
	s.sessions.Range(func(_ string, sess *Session) bool {
		if level >= sess.MinimumLogLevel {
			sendLogNotification(ctx, sess, msg)
		}
		return true
	})
}

func sendLogNotification(ctx context.Context, sess *Session, msg LogMessage) {
	params, err := json.Marshal(msg)
	if err != nil {
		return
	}
	notification := &jsonrpc.Notification{
		Jsonrpc: jsonrpc.Version,
		Method:  "notifications/message",
		Params:  params,
	}
	data, err := json.Marshal(notification)
	if err != nil {
		return
	}
	sess.SendData(ctx, data)
}

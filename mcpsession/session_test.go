package mcpsession

import (
	"context"
	"github.com/stretchr/testify/assert"
	base "github.com/viant/mcprt/transport/server/base"
	"testing"
	"time"
)

func TestSession_TokenLifecycle(t *testing.T) {
	sess := New(&base.Session{Id: "sess-1"})
	assert.False(t, sess.TokenValid(time.Now()))

	sess.SetToken("tok-1", "idtok", time.Now().Add(time.Minute), map[string]interface{}{"sub": "u1"})
	assert.True(t, sess.TokenValid(time.Now()))
	assert.Equal(t, "tok-1", sess.Token())

	sess.SetToken("tok-2", "", time.Now().Add(-time.Minute), nil)
	assert.False(t, sess.TokenValid(time.Now()))
}

func TestStore_SessionForToken(t *testing.T) {
	store := NewStore()
	a := New(&base.Session{Id: "a"})
	a.SetToken("shared", "", time.Now().Add(time.Hour), nil)
	b := New(&base.Session{Id: "b"})

	store.Put("a", a)
	store.Put("b", b)

	found, ok := store.SessionForToken("shared")
	assert.True(t, ok)
	assert.Equal(t, "a", found.Id)

	_, ok = store.SessionForToken("nope")
	assert.False(t, ok)
}

func TestStore_ForEachBindsContext(t *testing.T) {
	store := NewStore()
	store.Put("a", New(&base.Session{Id: "a"}))

	seen := 0
	store.ForEach(context.Background(), func(ctx context.Context, sess *Session) {
		bound, ok := FromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, sess, bound)
		seen++
	})
	assert.Equal(t, 1, seen)
}

func TestStore_RemoveAll(t *testing.T) {
	store := NewStore()
	store.Put("a", New(&base.Session{Id: "a"}))
	store.Put("b", New(&base.Session{Id: "b"}))
	store.RemoveAll()
	_, ok := store.Get("a")
	assert.False(t, ok)
	_, ok = store.Get("b")
	assert.False(t, ok)
}

package chat

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookupIgnoresCaseAndSpace(t *testing.T) {
	r := NewRegistry()
	s := newQueueSession("Alice")
	r.Register("  ALICE ", s)

	for _, id := range []string{"alice", "Alice", " alice\t"} {
		got, ok := r.Lookup(id)
		require.True(t, ok, id)
		assert.Same(t, s, got)
	}
}

func TestRegistryLastConnectionWins(t *testing.T) {
	r := NewRegistry()
	s1, s2 := newQueueSession("u"), newQueueSession("u")

	assert.Nil(t, r.Register("u", s1))
	assert.Same(t, s1, r.Register("U", s2))

	got, ok := r.Lookup("u")
	require.True(t, ok)
	assert.Same(t, s2, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryStaleUnregisterKeepsReplacement(t *testing.T) {
	r := NewRegistry()
	s1, s2 := newQueueSession("u"), newQueueSession("u")
	r.Register("u", s1)
	r.Register("u", s2)

	assert.False(t, r.Unregister("u", s1))
	got, ok := r.Lookup("u")
	require.True(t, ok)
	assert.Same(t, s2, got)

	assert.True(t, r.Unregister("u", s2))
	_, ok = r.Lookup("u")
	assert.False(t, ok)
	assert.False(t, r.Unregister("u", s2))
}

func TestRegistryDeliverSkipsOrphan(t *testing.T) {
	r := NewRegistry()
	s1, s2 := newQueueSession("u"), newQueueSession("u")
	r.Register("u", s1)
	r.Register("u", s2)

	assert.True(t, r.Deliver(" U ", "ping", map[string]int{"n": 1}))
	assert.Empty(t, drain(s1))
	frames := drain(s2)
	require.Len(t, frames, 1)
	assert.Equal(t, "ping", frames[0].Event)

	assert.False(t, r.Deliver("nobody", "ping", nil))
}

func TestRegistryBroadcast(t *testing.T) {
	r := NewRegistry()
	a, b := newQueueSession("a"), newQueueSession("b")
	r.Register("a", a)
	r.Register("b", b)

	assert.Equal(t, 2, r.Broadcast(EvUserStatus, UserStatusPayload{UserID: "c", Status: "online"}))
	for _, s := range []*Session{a, b} {
		frames := drain(s)
		require.Len(t, frames, 1)
		p := dataOf[UserStatusPayload](t, frames[0])
		assert.Equal(t, "c", p.UserID)
	}
}

func TestRegistryFullQueueClosesSession(t *testing.T) {
	r := NewRegistry()
	s := NewSession("slow", nil, 1)
	r.Register("slow", s)

	assert.True(t, r.Deliver("slow", "e", nil))
	assert.False(t, r.Deliver("slow", "e", nil))

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("slow session was not closed")
	}
	assert.False(t, s.Emit("e", nil))
}

func TestRegistryPerSessionOrder(t *testing.T) {
	r := NewRegistry()
	s := newQueueSession("u")
	r.Register("u", s)
	for i := 0; i < 20; i++ {
		require.True(t, r.Deliver("u", fmt.Sprintf("e%d", i), nil))
	}
	frames := drain(s)
	require.Len(t, frames, 20)
	for i, f := range frames {
		assert.Equal(t, fmt.Sprintf("e%d", i), f.Event)
	}
}

func TestRegistryIdentitiesSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"Carol", "alice", " Bob "} {
		r.Register(id, newQueueSession(id))
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, r.Identities())
}

func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("User%d", i%4)
			for j := 0; j < 50; j++ {
				s := NewSession(id, nil, 1024)
				r.Register(id, s)
				r.Lookup(id)
				r.Deliver(id, "x", nil)
				r.Broadcast("y", nil)
				r.Unregister(id, s)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}

func TestRegistrySessionsSnapshot(t *testing.T) {
	r := NewRegistry()
	a, b := newQueueSession("a"), newQueueSession("b")
	r.Register("a", a)
	r.Register("b", b)

	got := r.Sessions()
	assert.ElementsMatch(t, []*Session{a, b}, got)

	r.Unregister("a", a)
	assert.Len(t, got, 2)
	assert.Len(t, r.Sessions(), 1)
}

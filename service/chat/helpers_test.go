package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	chatmodel "PPHub/module/chat/model"
	usermodel "PPHub/module/user/model"
	"PPHub/service/store"

	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, mutate ...func(*Options)) (*Hub, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore(nil)
	st.PutUser(usermodel.User{UserID: "alice", Name: "Alice", AvatarURL: "https://cdn/alice.png"})
	st.PutUser(usermodel.User{UserID: "bob", Name: "Bob"})
	st.PutUser(usermodel.User{UserID: "carol", Name: "Carol"})
	st.PutUser(usermodel.User{UserID: "dave", Name: "Dave"})
	st.PutGroup(chatmodel.Group{GroupID: "g1", GroupName: "Team"}, "alice", "bob", "carol")

	opts := Options{Store: st, EventPrefix: "pphub", OpTimeout: time.Second}
	for _, m := range mutate {
		m(&opts)
	}
	return NewHub(opts), st
}

func newQueueSession(userID string) *Session {
	return NewSession(userID, nil, 64)
}

// connect registers the sessions and discards the presence frames they receive.
func connect(h *Hub, ss ...*Session) {
	for _, s := range ss {
		h.Connect(s)
	}
	for _, s := range ss {
		drain(s)
	}
}

func drain(s *Session) []Frame {
	var out []Frame
	for {
		select {
		case b := <-s.send:
			var f Frame
			if err := json.Unmarshal(b, &f); err == nil {
				out = append(out, f)
			}
		default:
			return out
		}
	}
}

func only(frames []Frame, event string) []Frame {
	var out []Frame
	for _, f := range frames {
		if f.Event == event {
			out = append(out, f)
		}
	}
	return out
}

func dataOf[T any](t *testing.T, f Frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Data, &v))
	return v
}

type published struct {
	subject, key string
	data         []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *fakePublisher) Publish(_ context.Context, subject, key string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{subject: subject, key: key, data: data})
	return nil
}

func (p *fakePublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.subject)
	}
	return out
}

type fakeMirror struct {
	mu    sync.Mutex
	calls []string
}

func (m *fakeMirror) record(op, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op+":"+user)
	return nil
}

func (m *fakeMirror) Online(_ context.Context, user string) error  { return m.record("online", user) }
func (m *fakeMirror) Touch(_ context.Context, user string) error   { return m.record("touch", user) }
func (m *fakeMirror) Offline(_ context.Context, user string) error { return m.record("offline", user) }

func (m *fakeMirror) has(call string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == call {
			return true
		}
	}
	return false
}

// last returns the most recent online/offline call recorded for user.
func (m *fakeMirror) last(user string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if c := m.calls[i]; c == "online:"+user || c == "offline:"+user {
			return c
		}
	}
	return ""
}

type fakeMinter struct {
	token, appID string
	err          error
	channel      string
}

func (m *fakeMinter) MintCallToken(channel string, _ int64, _ string, _ time.Duration) (string, string, error) {
	m.channel = channel
	if m.err != nil {
		return "", "", m.err
	}
	return m.token, m.appID, nil
}

package store

import (
	"context"
	"sync"
	"time"

	chatmodel "PPHub/module/chat/model"
	usermodel "PPHub/module/user/model"
	"PPHub/tools/errs"
	"PPHub/tools/ids"
)

// MemoryStore keeps everything in process; used for local runs and tests.
// Fail, when set, is consulted before every operation and lets tests inject errors.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]usermodel.User
	groups   map[string]chatmodel.Group
	members  map[string][]chatmodel.GroupMember
	messages []chatmodel.Message
	groupMsg []chatmodel.GroupMessage
	ids      *ids.Generator

	Fail func(op string) error
}

func NewMemoryStore(gen *ids.Generator) *MemoryStore {
	if gen == nil {
		gen = ids.NewGenerator(1)
	}
	return &MemoryStore{
		users:   make(map[string]usermodel.User),
		groups:  make(map[string]chatmodel.Group),
		members: make(map[string][]chatmodel.GroupMember),
		ids:     gen,
	}
}

func (s *MemoryStore) fail(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

func (s *MemoryStore) PutUser(u usermodel.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UserID] = u
}

// PutGroup stores g and replaces its member list with memberIDs.
func (s *MemoryStore) PutGroup(g chatmodel.Group, memberIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.GroupID] = g
	list := make([]chatmodel.GroupMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		list = append(list, chatmodel.GroupMember{
			GroupID:  g.GroupID,
			UserID:   id,
			Role:     chatmodel.RoleMember,
			JoinTime: time.Now(),
		})
	}
	s.members[g.GroupID] = list
}

func (s *MemoryStore) FindUser(_ context.Context, id string) (*usermodel.User, error) {
	if err := s.fail("FindUser"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("user", "id", id)
	}
	return &u, nil
}

func (s *MemoryStore) UpdateUserStatus(_ context.Context, id, status string) error {
	if err := s.fail("UpdateUserStatus"); err != nil {
		return err
	}
	if !usermodel.ValidStatus(status) {
		return errs.ErrValidation.WrapMsg("invalid status", "status", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errs.ErrNotFound.WrapMsg("user", "id", id)
	}
	u.Status = status
	u.LastActive = time.Now()
	s.users[id] = u
	return nil
}

func (s *MemoryStore) CreateMessage(_ context.Context, m *chatmodel.Message) (*chatmodel.Message, error) {
	if err := s.fail("CreateMessage"); err != nil {
		return nil, err
	}
	out := *m
	if out.ID == "" {
		out.ID = s.ids.NextString()
	}
	if out.Attachments == nil {
		out.Attachments = []string{}
	}
	s.mu.Lock()
	s.messages = append(s.messages, out)
	s.mu.Unlock()
	return &out, nil
}

func (s *MemoryStore) CreateGroupMessage(_ context.Context, m *chatmodel.GroupMessage) (*chatmodel.GroupMessage, error) {
	if err := s.fail("CreateGroupMessage"); err != nil {
		return nil, err
	}
	out := *m
	if out.ID == "" {
		out.ID = s.ids.NextString()
	}
	if out.Attachments == nil {
		out.Attachments = []string{}
	}
	s.mu.Lock()
	s.groupMsg = append(s.groupMsg, out)
	s.mu.Unlock()
	return &out, nil
}

func (s *MemoryStore) ListGroupMembers(_ context.Context, groupID string) ([]chatmodel.GroupMember, error) {
	if err := s.fail("ListGroupMembers"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.members[groupID]
	out := make([]chatmodel.GroupMember, len(list))
	copy(out, list)
	return out, nil
}

func (s *MemoryStore) FindGroup(_ context.Context, id string) (*chatmodel.Group, error) {
	if err := s.fail("FindGroup"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("group", "id", id)
	}
	return &g, nil
}

// Messages returns a copy of the stored direct messages.
func (s *MemoryStore) Messages() []chatmodel.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chatmodel.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// GroupMessages returns a copy of the stored group messages.
func (s *MemoryStore) GroupMessages() []chatmodel.GroupMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chatmodel.GroupMessage, len(s.groupMsg))
	copy(out, s.groupMsg)
	return out
}

// UserStatus returns the stored presence of id, "" when unknown.
func (s *MemoryStore) UserStatus(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id].Status
}

package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	usermodel "PPHub/module/user/model"

	"go.uber.org/zap"
)

const (
	SubjectPresence      = "presence"
	SubjectDirectMessage = "chat.message.direct"
	SubjectGroupMessage  = "chat.message.group"
)

// PresenceEvent 发布到事件总线的在线状态变化
type PresenceEvent struct {
	UserID    string `json:"userId"`
	Status    string `json:"status"`
	Node      string `json:"node,omitempty"`
	SessionID string `json:"sessionId"`
	At        int64  `json:"at"`
}

// Connect 登记连接 -> 异步写库 -> 广播 online。写库失败不影响登记与广播。
func (h *Hub) Connect(s *Session) {
	h.transition.Lock()
	prev := h.reg.Register(s.UserID, s)
	gen := h.seq.next(s.Identity())
	h.transition.Unlock()

	if prev != nil && prev != s {
		h.log.Info("session replaced",
			zap.String("user", s.Identity()),
			zap.String("old", prev.ID), zap.String("new", s.ID))
	}
	h.presenceChanged(s, usermodel.StatusOnline, gen)
}

// Disconnect 只有当前登记的确是 s 时才标记下线
func (h *Hub) Disconnect(s *Session) bool {
	h.transition.Lock()
	removed := h.reg.Unregister(s.UserID, s)
	var gen uint64
	if removed {
		gen = h.seq.next(s.Identity())
	}
	h.transition.Unlock()

	if !removed {
		h.log.Debug("stale session disconnect", zap.String("user", s.Identity()), zap.String("session", s.ID))
		return false
	}
	h.presenceChanged(s, usermodel.StatusOffline, gen)
	return true
}

// Touch 心跳续期 Redis 镜像；连接已被顶替时忽略
func (h *Hub) Touch(s *Session) {
	if h.opts.Presence == nil {
		return
	}
	if cur, ok := h.reg.Lookup(s.UserID); !ok || cur != s {
		return
	}
	id := s.Identity()
	h.tasks.Detach("presence.touch", h.opts.OpTimeout, func(ctx context.Context) error {
		return h.opts.Presence.Touch(ctx, id)
	})
}

// presenceChanged 的存储与镜像写入按 gen 有序落地：同一身份较新的状态已写入时，旧的直接丢弃
func (h *Hub) presenceChanged(s *Session, status string, gen uint64) {
	userID, id := s.UserID, s.Identity()

	h.tasks.Detach("presence.store", h.opts.OpTimeout, func(ctx context.Context) error {
		return h.seq.apply(id, sinkStore, gen, func() error {
			return h.opts.Store.UpdateUserStatus(ctx, userID, status)
		})
	})
	if h.opts.Presence != nil {
		h.tasks.Detach("presence.mirror", h.opts.OpTimeout, func(ctx context.Context) error {
			return h.seq.apply(id, sinkMirror, gen, func() error {
				if status == usermodel.StatusOnline {
					return h.opts.Presence.Online(ctx, id)
				}
				return h.opts.Presence.Offline(ctx, id)
			})
		})
	}
	h.publish(SubjectPresence, id, PresenceEvent{
		UserID:    userID,
		Status:    status,
		Node:      h.opts.NodeID,
		SessionID: s.ID,
		At:        time.Now().UnixMilli(),
	})

	n := h.reg.Broadcast(EvUserStatus, UserStatusPayload{UserID: userID, Status: status})
	h.log.Info("presence", zap.String("user", id), zap.String("status", status), zap.Int("notified", n))
}

// publish 异步投递领域事件，失败只记日志
func (h *Hub) publish(name, key string, v any) {
	if h.opts.Publisher == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("encode event", zap.String("subject", name), zap.Error(err))
		return
	}
	subject := h.subject(name)
	h.tasks.Detach("events.publish", h.opts.OpTimeout, func(ctx context.Context) error {
		return h.opts.Publisher.Publish(ctx, subject, key, data)
	})
}

const (
	sinkStore = iota
	sinkMirror
	sinkCount
)

// statusSeq 为每个身份的状态变化编号；各写入目标只接受比已写入更新的编号
type statusSeq struct {
	mu sync.Mutex
	m  map[string]*seqEntry
}

type seqEntry struct {
	mu      sync.Mutex
	issued  uint64
	applied [sinkCount]uint64
}

func (q *statusSeq) entry(id string) *seqEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.m == nil {
		q.m = make(map[string]*seqEntry)
	}
	e, ok := q.m[id]
	if !ok {
		e = &seqEntry{}
		q.m[id] = e
	}
	return e
}

func (q *statusSeq) next(id string) uint64 {
	e := q.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.issued++
	return e.issued
}

// apply 在该身份的锁内执行 write；gen 已过期时跳过并返回 nil。
// 失败的写入同样推进编号，更早的状态不会再覆盖它。
func (q *statusSeq) apply(id string, sink int, gen uint64, write func() error) error {
	e := q.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen <= e.applied[sink] {
		return nil
	}
	e.applied[sink] = gen
	return write()
}

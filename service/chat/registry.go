package chat

import (
	"sort"
	"sync"

	"PPHub/logger"

	"go.uber.org/zap"
)

// Registry 规范化身份 -> 当前唯一有效连接。后连接者覆盖先连接者。
// 锁内只做内存操作与非阻塞入队。
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Session)}
}

// Register 无条件覆盖，返回被顶替的旧连接（可能为 nil）
func (r *Registry) Register(identity string, s *Session) *Session {
	key := Normalize(identity)
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.entries[key]
	r.entries[key] = s
	return prev
}

// Unregister 仅当当前登记的就是 s 时才删除
func (r *Registry) Unregister(identity string, s *Session) bool {
	key := Normalize(identity)
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[key]; ok && cur == s {
		delete(r.entries, key)
		return true
	}
	return false
}

func (r *Registry) Lookup(identity string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.entries[Normalize(identity)]
	return s, ok
}

// Deliver 查找与入队在同一把读锁内完成，被顶替的连接不会再收到路由事件
func (r *Registry) Deliver(identity, event string, payload any) bool {
	b, err := EncodeFrame(event, payload)
	if err != nil {
		logger.Error("[Registry] encode frame", zap.String("event", event), zap.Error(err))
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.entries[Normalize(identity)]
	if !ok {
		return false
	}
	return s.enqueue(b)
}

// Broadcast 发给所有在线连接，返回成功入队数
func (r *Registry) Broadcast(event string, payload any) int {
	b, err := EncodeFrame(event, payload)
	if err != nil {
		logger.Error("[Registry] encode frame", zap.String("event", event), zap.Error(err))
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.entries {
		if s.enqueue(b) {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Identities 在线身份，按字典序
func (r *Registry) Identities() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Sessions 当前登记连接的快照，停机时逐个下线
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.entries))
	for _, s := range r.entries {
		out = append(out, s)
	}
	return out
}

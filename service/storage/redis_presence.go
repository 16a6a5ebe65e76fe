package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Presence mirrors the hub's online set into Redis so other services can ask
// "is this user connected, and where" without talking to the hub.
//
// presence key: im:presence:<user>
// Value: node id, TTL controls the online validity period
type Presence struct {
	rdb    redis.Cmdable
	nodeID string
	ttl    time.Duration
}

func NewPresence(rdb redis.Cmdable, nodeID string, ttl time.Duration) *Presence {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Presence{rdb: rdb, nodeID: nodeID, ttl: ttl}
}

func presenceKey(user string) string { return "im:presence:" + user }

// Online sets the user as online on this node and renews the TTL.
func (p *Presence) Online(ctx context.Context, user string) error {
	return errors.Wrapf(p.rdb.Set(ctx, presenceKey(user), p.nodeID, p.ttl).Err(), "presence online %s", user)
}

// Touch renews the TTL; a user whose key already expired is written again.
func (p *Presence) Touch(ctx context.Context, user string) error {
	ok, err := p.rdb.Expire(ctx, presenceKey(user), p.ttl).Result()
	if err != nil {
		return errors.Wrapf(err, "presence touch %s", user)
	}
	if !ok {
		return p.Online(ctx, user)
	}
	return nil
}

// Offline deletes the key only when it still points at this node, so a user
// who already reconnected elsewhere keeps their entry.
func (p *Presence) Offline(ctx context.Context, user string) error {
	err := p.rdb.Eval(ctx, luaOfflineIfOwner, []string{presenceKey(user)}, p.nodeID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errors.Wrapf(err, "presence offline %s", user)
	}
	return nil
}

// Lookup checks whether the user is online and on which node.
func (p *Presence) Lookup(ctx context.Context, user string) (nodeID string, online bool, err error) {
	val, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "presence lookup %s", user)
	}
	return val, true, nil
}

// KEYS[1] = presence key, ARGV[1] = node id
// 返回：1=删除；0=不存在或属于其他节点
const luaOfflineIfOwner = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"PPHub/logger"
	"PPHub/service/rtc"
	"PPHub/service/store"
	"PPHub/tools/errs"
	"PPHub/tools/safe"

	"go.uber.org/zap"
)

// Publisher 领域事件总线（NATS / Kafka）。key 用于去重或分区。
type Publisher interface {
	Publish(ctx context.Context, subject, key string, data []byte) error
}

// PresenceMirror 在线状态旁路镜像（Redis）
type PresenceMirror interface {
	Online(ctx context.Context, user string) error
	Touch(ctx context.Context, user string) error
	Offline(ctx context.Context, user string) error
}

type Options struct {
	Store     store.Store
	Presence  PresenceMirror // 可选
	Publisher Publisher      // 可选
	Minter    rtc.Minter     // 可选；为空时群呼不补发令牌

	NodeID      string
	EventPrefix string
	OpTimeout   time.Duration
	TokenTTL    time.Duration
}

// Hub 在线状态、消息路由与呼叫信令的汇合点
type Hub struct {
	reg  *Registry
	opts Options
	log  *zap.Logger

	// transition 让登记变化与状态序号同序
	transition sync.Mutex
	seq        statusSeq
	tasks      safe.Tasks
}

func NewHub(opts Options) *Hub {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 5 * time.Second
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &Hub{
		reg:  NewRegistry(),
		opts: opts,
		log:  logger.Named("hub"),
	}
}

func (h *Hub) Registry() *Registry { return h.reg }

// HandleFrame 解析并分发一帧；坏帧与未知事件只记日志
func (h *Hub) HandleFrame(ctx context.Context, s *Session, raw []byte) {
	ev, err := ParseFrameJSON(raw)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrValidation):
			h.log.Debug("drop invalid event", zap.String("session", s.ID), zap.Error(err))
		case errors.Is(err, ErrUnknownEvent):
			h.log.Info("drop unknown event", zap.String("session", s.ID), zap.Error(err))
		default:
			sample := raw
			if len(sample) > 256 {
				sample = sample[:256]
			}
			h.log.Info("drop malformed frame", zap.String("session", s.ID),
				zap.ByteString("sample", sample), zap.Error(err))
		}
		return
	}
	h.Dispatch(ctx, s, ev)
}

func (h *Hub) Dispatch(ctx context.Context, s *Session, ev InboundEvent) {
	switch e := ev.(type) {
	case *SendMessage:
		_, _ = h.RouteDirect(ctx, s, e)
	case *SendGroupMessage:
		_, _ = h.RouteGroup(ctx, s, e)
	case *StartCall:
		h.StartCall(ctx, e)
	case *StartGroupCall:
		h.StartGroupCall(ctx, e)
	case *CallAgoraUID:
		h.ForwardPeerUID(EvCallPeerAgoraUID, &e.PeerUID)
	case *DMAgoraUID:
		h.ForwardPeerUID(EvDMPeerAgoraUID, &e.PeerUID)
	case *CallAccepted:
		h.CallAccepted(s, e)
	default:
		h.log.Warn("unhandled event", zap.String("event", ev.EventName()))
	}
}

// Shutdown 逐个下线当前连接（写库、镜像、广播 offline）并关闭，
// 再等待未完成的异步写入，之后才能关闭存储。
func (h *Hub) Shutdown(ctx context.Context) error {
	for _, s := range h.reg.Sessions() {
		h.Disconnect(s)
		s.Close()
	}
	return h.tasks.Wait(ctx)
}

// Wait 等待已分离的写库、镜像与事件发布完成
func (h *Hub) Wait(ctx context.Context) error {
	return h.tasks.Wait(ctx)
}

func (h *Hub) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.opts.OpTimeout)
}

func (h *Hub) subject(name string) string {
	if h.opts.EventPrefix == "" {
		return name
	}
	return h.opts.EventPrefix + "." + name
}

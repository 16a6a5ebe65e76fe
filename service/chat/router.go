package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	chatmodel "PPHub/module/chat/model"
	usermodel "PPHub/module/user/model"
	"PPHub/tools/errs"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	errSendMessage      = "Failed to send message"
	errSendGroupMessage = "Failed to send group message"
	errRecipientMissing = "Recipient not found"
	errGroupMissing     = "Group not found"
)

// RouteDirect 校验接收方 -> 落库 -> 投递 new_message -> 回执 message_sent。
// 任何失败只向 origin 发 message_error。
func (h *Hub) RouteDirect(ctx context.Context, origin *Session, in *SendMessage) (*chatmodel.Message, error) {
	var sender *usermodel.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, cancel := h.opCtx(gctx)
		defer cancel()
		_, err := h.opts.Store.FindUser(c, in.To)
		return err
	})
	g.Go(func() error {
		c, cancel := h.opCtx(gctx)
		defer cancel()
		u, err := h.opts.Store.FindUser(c, in.From)
		if err != nil {
			// 发送方展示信息缺失不阻断发送
			h.log.Debug("sender lookup", zap.String("from", in.From), zap.Error(err))
			return nil
		}
		sender = u
		return nil
	})
	if err := g.Wait(); err != nil {
		h.routeFailed(origin, err, errRecipientMissing, errSendMessage, zap.String("to", in.To))
		return nil, err
	}

	c, cancel := h.opCtx(ctx)
	saved, err := h.opts.Store.CreateMessage(c, &chatmodel.Message{
		SenderID:    in.From,
		ReceiverID:  in.To,
		Content:     in.Message,
		Type:        messageType(in.Type),
		Attachments: attachments(in.Attachments),
		VoiceURL:    nonEmpty(in.VoiceURL),
		Duration:    in.Duration,
		CreatedAt:   clientTime(in.Timestamp),
	})
	cancel()
	if err != nil {
		h.routeFailed(origin, err, errSendMessage, errSendMessage, zap.String("to", in.To))
		return nil, err
	}

	delivered := h.reg.Deliver(in.To, EvNewMessage, NewMessagePayload{
		ID:          saved.ID,
		From:        in.From,
		To:          in.To,
		Message:     in.Message,
		Type:        saved.Type,
		Attachments: saved.Attachments,
		VoiceURL:    saved.VoiceURL,
		Duration:    saved.Duration,
		Timestamp:   in.Timestamp,
		Sender:      usermodel.AsSender(in.From, sender),
	})
	origin.Emit(EvMessageSent, AckPayload{ID: saved.ID, Timestamp: in.Timestamp})

	h.publish(SubjectDirectMessage, conversationKey(in.From, in.To), saved)
	h.log.Debug("direct message routed", zap.String("id", saved.ID),
		zap.String("from", in.From), zap.String("to", in.To), zap.Bool("delivered", delivered))
	return saved, nil
}

// RouteGroup 校验群与成员 -> 落库 -> 逐个投递给在线成员（不含发送者）-> 回执
func (h *Hub) RouteGroup(ctx context.Context, origin *Session, in *SendGroupMessage) (*chatmodel.GroupMessage, error) {
	var (
		sender  *usermodel.User
		members []chatmodel.GroupMember
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, cancel := h.opCtx(gctx)
		defer cancel()
		_, err := h.opts.Store.FindGroup(c, in.GroupID)
		return err
	})
	g.Go(func() error {
		c, cancel := h.opCtx(gctx)
		defer cancel()
		list, err := h.opts.Store.ListGroupMembers(c, in.GroupID)
		members = list
		return err
	})
	g.Go(func() error {
		c, cancel := h.opCtx(gctx)
		defer cancel()
		if u, err := h.opts.Store.FindUser(c, in.From); err == nil {
			sender = u
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.routeFailed(origin, err, errGroupMissing, errSendGroupMessage, zap.String("group", in.GroupID))
		return nil, err
	}

	c, cancel := h.opCtx(ctx)
	saved, err := h.opts.Store.CreateGroupMessage(c, &chatmodel.GroupMessage{
		GroupID:     in.GroupID,
		SenderID:    in.From,
		Content:     in.Message,
		Type:        messageType(in.Type),
		Attachments: attachments(in.Attachments),
		VoiceURL:    nonEmpty(in.VoiceURL),
		Duration:    in.Duration,
		CreatedAt:   clientTime(in.Timestamp),
	})
	cancel()
	if err != nil {
		h.routeFailed(origin, err, errSendGroupMessage, errSendGroupMessage, zap.String("group", in.GroupID))
		return nil, err
	}

	payload := NewGroupMessagePayload{
		ID:          saved.ID,
		GroupID:     in.GroupID,
		From:        in.From,
		Message:     in.Message,
		Type:        saved.Type,
		Attachments: saved.Attachments,
		VoiceURL:    saved.VoiceURL,
		Duration:    saved.Duration,
		Timestamp:   in.Timestamp,
		Sender:      usermodel.AsSender(in.From, sender),
	}
	self := Normalize(in.From)
	delivered := 0
	for _, m := range members {
		if Normalize(m.UserID) == self {
			continue
		}
		if h.reg.Deliver(m.UserID, EvNewGroupMessage, payload) {
			delivered++
		}
	}
	origin.Emit(EvGroupMessageSent, AckPayload{ID: saved.ID, Timestamp: in.Timestamp})

	h.publish(SubjectGroupMessage, in.GroupID, saved)
	h.log.Debug("group message routed", zap.String("id", saved.ID),
		zap.String("group", in.GroupID), zap.Int("members", len(members)), zap.Int("delivered", delivered))
	return saved, nil
}

// routeFailed NotFound 用 notFoundMsg，其余用 failMsg；只发给 origin
func (h *Hub) routeFailed(origin *Session, err error, notFoundMsg, failMsg string, fields ...zap.Field) {
	msg := failMsg
	if errors.Is(err, errs.ErrNotFound) {
		msg = notFoundMsg
	}
	h.log.Warn("route message failed", append(fields, zap.String("session", origin.ID), zap.Error(err))...)
	origin.Emit(EvMessageError, ErrorPayload{Error: msg})
}

func messageType(t string) string {
	if t = strings.TrimSpace(t); t == "" {
		return chatmodel.TypeText
	}
	return t
}

func attachments(a []string) []string {
	if a == nil {
		return []string{}
	}
	return a
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// clientTime 客户端毫秒时间戳，非正或无法解析时用服务端时间
func clientTime(v any) time.Time {
	var ms int64
	switch t := v.(type) {
	case float64:
		ms = int64(t)
	case int64:
		ms = t
	case int:
		ms = int64(t)
	case json.Number:
		ms, _ = t.Int64()
	case string:
		ms, _ = strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	}
	if ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}

// conversationKey 单聊会话 key，与方向无关
func conversationKey(a, b string) string {
	a, b = Normalize(a), Normalize(b)
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

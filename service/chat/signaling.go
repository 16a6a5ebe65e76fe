package chat

import (
	"context"
	"errors"
	"net/url"
	"strings"

	chatmodel "PPHub/module/chat/model"
	usermodel "PPHub/module/user/model"
	"PPHub/service/rtc"
	"PPHub/tools/errs"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	CallTypeAudio = "audio"
	CallTypeVideo = "video"

	fallbackCallerName = "Unknown"
	fallbackGroupName  = "Group"
)

// 信令全部无状态：按身份查注册表转发，目标不在线则静默丢弃

// StartCall 1:1 来电
func (h *Hub) StartCall(ctx context.Context, in *StartCall) {
	caller := h.lookupUser(ctx, in.From)

	name, avatar := callerDisplay(caller)
	payload := IncomingCallPayload{
		CallerID:    in.From,
		CallerName:  name,
		Avatar:      avatar,
		CallType:    orDefault(in.CallType, CallTypeAudio),
		ChannelName: strings.TrimSpace(in.ChannelName),
	}
	if payload.ChannelName == "" {
		h.log.Warn("start_call without channelName", zap.String("from", in.From))
	}
	ok := h.reg.Deliver(in.To, EvIncomingCall, payload)
	h.log.Info("incoming_call", zap.String("from", in.From), zap.String("to", in.To),
		zap.String("callType", payload.CallType), zap.Bool("delivered", ok))
}

// StartGroupCall 主叫、群信息、成员并发查询后逐个通知（不含主叫）
func (h *Hub) StartGroupCall(ctx context.Context, in *StartGroupCall) {
	var (
		caller  *usermodel.User
		group   *chatmodel.Group
		members []chatmodel.GroupMember
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		caller = h.lookupUser(gctx, in.From)
		return nil
	})
	g.Go(func() error {
		c, cancel := h.opCtx(gctx)
		defer cancel()
		gr, err := h.opts.Store.FindGroup(c, in.GroupID)
		if err != nil && !errors.Is(err, errs.ErrNotFound) {
			h.log.Warn("group lookup", zap.String("group", in.GroupID), zap.Error(err))
		}
		group = gr
		return nil
	})
	g.Go(func() error {
		c, cancel := h.opCtx(gctx)
		defer cancel()
		list, err := h.opts.Store.ListGroupMembers(c, in.GroupID)
		members = list
		return err
	})
	if err := g.Wait(); err != nil {
		h.log.Error("start_group_call: members", zap.String("group", in.GroupID), zap.Error(err))
		return
	}

	name, avatar := callerDisplay(caller)
	groupName := fallbackGroupName
	groupAvatar := ""
	if group != nil {
		if group.GroupName != "" {
			groupName = group.GroupName
		}
		groupAvatar = group.FaceURL
	}
	if groupAvatar == "" {
		groupAvatar = avatarURL(groupName)
	}
	token, appID := h.callCredentials(&in.Meeting)

	payload := GroupCallPayload{
		IncomingCallPayload: IncomingCallPayload{
			CallerID:    in.From,
			CallerName:  name,
			Avatar:      avatar,
			CallType:    orDefault(in.CallType, CallTypeVideo),
			ChannelName: in.Meeting.ChannelName,
		},
		IsGroupCall: true,
		GroupID:     in.GroupID,
		GroupName:   groupName,
		GroupAvatar: groupAvatar,
		Code:        in.Meeting.Code,
		Title:       in.Meeting.Title,
		Token:       token,
		AppID:       appID,
	}

	self := Normalize(in.From)
	emitted := 0
	for _, m := range members {
		if Normalize(m.UserID) == self {
			continue
		}
		if h.reg.Deliver(m.UserID, EvIncomingCall, payload) {
			emitted++
		}
	}
	h.log.Info("group call", zap.String("from", in.From), zap.String("group", in.GroupID), zap.Int("emitted", emitted))
}

// ForwardPeerUID call_agora_uid / dm_agora_uid 转发给对端
func (h *Hub) ForwardPeerUID(event string, in *PeerUID) {
	ok := h.reg.Deliver(in.TargetUserID, event, PeerUIDPayload{
		ChannelName: strings.TrimSpace(in.ChannelName),
		AgoraUID:    *in.AgoraUID,
	})
	h.log.Debug(event, zap.String("target", Normalize(in.TargetUserID)),
		zap.Int64("uid", *in.AgoraUID), zap.Bool("delivered", ok))
}

// CallAccepted from 取接听方连接的身份，不信任负载
func (h *Hub) CallAccepted(s *Session, in *CallAccepted) {
	ok := h.reg.Deliver(in.To, EvCallAccepted, CallAcceptedPayload{From: s.UserID})
	h.log.Info("call accepted", zap.String("callee", s.Identity()), zap.String("caller", in.To), zap.Bool("delivered", ok))
}

// callCredentials 会议自带令牌优先；否则尝试签发，失败时 token/appId 为 null
func (h *Hub) callCredentials(m *Meeting) (token, appID *string) {
	if m.Token != "" {
		return strPtr(m.Token), strPtr(m.AppID)
	}
	if h.opts.Minter == nil {
		return nil, strPtr(m.AppID)
	}
	t, id, err := h.opts.Minter.MintCallToken(m.ChannelName, 0, rtc.RolePublisher, h.opts.TokenTTL)
	if err != nil {
		h.log.Warn("mint call token", zap.String("channel", m.ChannelName), zap.Error(err))
		return nil, strPtr(m.AppID)
	}
	if m.AppID != "" {
		id = m.AppID
	}
	return &t, strPtr(id)
}

// lookupUser 展示信息查询，失败返回 nil（走兜底）
func (h *Hub) lookupUser(ctx context.Context, id string) *usermodel.User {
	c, cancel := h.opCtx(ctx)
	defer cancel()
	u, err := h.opts.Store.FindUser(c, id)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			h.log.Warn("caller lookup", zap.String("user", id), zap.Error(err))
		}
		return nil
	}
	return u
}

func callerDisplay(u *usermodel.User) (name, avatar string) {
	name = fallbackCallerName
	if u != nil && u.Name != "" {
		name = u.Name
	}
	if u != nil && u.AvatarURL != "" {
		return name, u.AvatarURL
	}
	return name, avatarURL(name)
}

// avatarURL 按名字生成的兜底头像
func avatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=EF5F21&color=fff&size=150"
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

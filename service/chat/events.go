package chat

import (
	usermodel "PPHub/module/user/model"
)

// 入站事件名
const (
	EvSendMessage      = "send_message"
	EvSendGroupMessage = "send_group_message"
	EvStartCall        = "start_call"
	EvStartGroupCall   = "start_group_call"
	EvCallAgoraUID     = "call_agora_uid"
	EvDMAgoraUID       = "dm_agora_uid"
	EvCallAccepted     = "call_accepted"
)

// 出站事件名
const (
	EvUserStatus       = "user_status"
	EvNewMessage       = "new_message"
	EvMessageSent      = "message_sent"
	EvMessageError     = "message_error"
	EvNewGroupMessage  = "new_group_message"
	EvGroupMessageSent = "group_message_sent"
	EvIncomingCall     = "incoming_call"
	EvCallPeerAgoraUID = "call_peer_agora_uid"
	EvDMPeerAgoraUID   = "dm_peer_agora_uid"
)

// InboundEvent is the closed set of client events. Only types in this
// file implement it; Hub.Dispatch switches over all of them.
type InboundEvent interface {
	EventName() string
	inbound()
}

type SendMessage struct {
	To          string   `json:"to"`
	Message     string   `json:"message"`
	From        string   `json:"from"`
	Timestamp   any      `json:"timestamp"` // 原样回显给发送方
	Attachments []string `json:"attachments"`
	Type        string   `json:"type"`
	VoiceURL    *string  `json:"voiceUrl"`
	Duration    *float64 `json:"duration"`
}

type SendGroupMessage struct {
	GroupID     string   `json:"groupId"`
	Message     string   `json:"message"`
	From        string   `json:"from"`
	Timestamp   any      `json:"timestamp"`
	Attachments []string `json:"attachments"`
	Type        string   `json:"type"`
	VoiceURL    *string  `json:"voiceUrl"`
	Duration    *float64 `json:"duration"`
}

type StartCall struct {
	To          string `json:"to"`
	CallType    string `json:"callType"`
	From        string `json:"from"`
	ChannelName string `json:"channelName"`
}

type Meeting struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	ChannelName string `json:"channelName"`
	Token       string `json:"token"`
	AppID       string `json:"appId"`
}

type StartGroupCall struct {
	From     string  `json:"from"`
	GroupID  string  `json:"groupId"`
	CallType string  `json:"callType"`
	Meeting  Meeting `json:"meeting"`
}

// PeerUID 交换媒体层 uid；agoraUid 可能是数字也可能是数字字符串
type PeerUID struct {
	ChannelName  string `json:"channelName"`
	AgoraUID     *int64 `json:"agoraUid"`
	TargetUserID string `json:"targetUserId"`
	MyUserID     string `json:"myUserId"`
}

type CallAgoraUID struct{ PeerUID }

type DMAgoraUID struct{ PeerUID }

type CallAccepted struct {
	To string `json:"to"`
}

func (*SendMessage) EventName() string      { return EvSendMessage }
func (*SendGroupMessage) EventName() string { return EvSendGroupMessage }
func (*StartCall) EventName() string        { return EvStartCall }
func (*StartGroupCall) EventName() string   { return EvStartGroupCall }
func (*CallAgoraUID) EventName() string     { return EvCallAgoraUID }
func (*DMAgoraUID) EventName() string       { return EvDMAgoraUID }
func (*CallAccepted) EventName() string     { return EvCallAccepted }

func (*SendMessage) inbound()      {}
func (*SendGroupMessage) inbound() {}
func (*StartCall) inbound()        {}
func (*StartGroupCall) inbound()   {}
func (*CallAgoraUID) inbound()     {}
func (*DMAgoraUID) inbound()       {}
func (*CallAccepted) inbound()     {}

// ---- 出站负载 ----

type UserStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type NewMessagePayload struct {
	ID          string           `json:"id"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	Message     string           `json:"message"`
	Type        string           `json:"type"`
	Attachments []string         `json:"attachments"`
	VoiceURL    *string          `json:"voiceUrl"`
	Duration    *float64         `json:"duration"`
	Timestamp   any              `json:"timestamp"`
	Sender      usermodel.Sender `json:"sender"`
}

type NewGroupMessagePayload struct {
	ID          string           `json:"id"`
	GroupID     string           `json:"groupId"`
	From        string           `json:"from"`
	Message     string           `json:"message"`
	Type        string           `json:"type"`
	Attachments []string         `json:"attachments"`
	VoiceURL    *string          `json:"voiceUrl"`
	Duration    *float64         `json:"duration"`
	Timestamp   any              `json:"timestamp"`
	Sender      usermodel.Sender `json:"sender"`
}

// AckPayload 回执里的 timestamp 是客户端传入的值，不是服务端时间
type AckPayload struct {
	ID        string `json:"id"`
	Timestamp any    `json:"timestamp"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type IncomingCallPayload struct {
	CallerID    string `json:"callerId"`
	CallerName  string `json:"callerName"`
	Avatar      string `json:"avatar"`
	CallType    string `json:"callType"`
	ChannelName string `json:"channelName,omitempty"`
}

// GroupCallPayload token/appId 为 null 时客户端需另行申请令牌
type GroupCallPayload struct {
	IncomingCallPayload
	IsGroupCall bool    `json:"isGroupCall"`
	GroupID     string  `json:"groupId"`
	GroupName   string  `json:"groupName"`
	GroupAvatar string  `json:"groupAvatar"`
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	Token       *string `json:"token"`
	AppID       *string `json:"appId"`
}

type PeerUIDPayload struct {
	ChannelName string `json:"channelName"`
	AgoraUID    int64  `json:"agoraUid"`
}

type CallAcceptedPayload struct {
	From string `json:"from"`
}

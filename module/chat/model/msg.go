package model

import "time"

// 消息内容类型
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeFile  = "file"
	TypeVoice = "voice"
	TypeVideo = "video"
)

const (
	MsgTableName      = "messages"
	GroupMsgTableName = "group_messages"
)

// Message 单聊消息，创建后不可变
type Message struct {
	ID          string    `bson:"_id" json:"id"`
	SenderID    string    `bson:"sender_id" json:"senderId"`
	ReceiverID  string    `bson:"receiver_id" json:"receiverId"`
	Content     string    `bson:"content" json:"content"`
	Type        string    `bson:"type" json:"type"`
	Attachments []string  `bson:"attachments" json:"attachments"`
	VoiceURL    *string   `bson:"voice_url,omitempty" json:"voiceUrl"`
	Duration    *float64  `bson:"duration,omitempty" json:"duration"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

// GroupMessage 群消息，创建后不可变
type GroupMessage struct {
	ID          string    `bson:"_id" json:"id"`
	GroupID     string    `bson:"group_id" json:"groupId"`
	SenderID    string    `bson:"sender_id" json:"senderId"`
	Content     string    `bson:"content" json:"content"`
	Type        string    `bson:"type" json:"type"`
	Attachments []string  `bson:"attachments" json:"attachments"`
	VoiceURL    *string   `bson:"voice_url,omitempty" json:"voiceUrl"`
	Duration    *float64  `bson:"duration,omitempty" json:"duration"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

func (*Message) TableName() string      { return MsgTableName }
func (*GroupMessage) TableName() string { return GroupMsgTableName }

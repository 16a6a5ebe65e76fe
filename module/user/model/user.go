package model

import "time"

// Presence values of User.Status
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusOffline = "offline"
)

// User 用户主档；hub 只读取展示字段并写 Status
type User struct {
	UserID    string `bson:"_id" json:"id"`
	Name      string `bson:"name" json:"name"`
	AvatarURL string `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	Email     string `bson:"email,omitempty" json:"-"`

	// —— 在线状态（展示用，允许轻微不一致）——
	Status     string    `bson:"status,omitempty" json:"status,omitempty"` // online/away/offline
	LastActive time.Time `bson:"last_active,omitempty" json:"-"`

	CreateTime time.Time `bson:"create_time" json:"-"`
	UpdateTime time.Time `bson:"update_time" json:"-"`
}

func (u *User) GetTableName() string {
	return "users"
}

// Sender is the display snapshot attached to delivered messages.
type Sender struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
}

// AsSender builds the display snapshot; a nil user yields only the id.
func AsSender(id string, u *User) Sender {
	s := Sender{ID: id}
	if u == nil {
		return s
	}
	s.ID = u.UserID
	s.Name = u.Name
	if u.AvatarURL != "" {
		avatar := u.AvatarURL
		s.AvatarURL = &avatar
	}
	return s
}

func ValidStatus(s string) bool {
	switch s {
	case StatusOnline, StatusAway, StatusOffline:
		return true
	}
	return false
}

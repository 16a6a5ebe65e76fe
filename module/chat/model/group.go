package model

import (
	"time"
)

// Group 群元数据；hub 只需要名称与头像用于来电展示
type Group struct {
	GroupID       string    `bson:"_id" json:"id"`
	GroupName     string    `bson:"name" json:"name"`
	FaceURL       string    `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	CreatorUserID string    `bson:"creator_user_id" json:"creatorUserId"`
	CreateTime    time.Time `bson:"create_time" json:"-"`
	UpdateTime    time.Time `bson:"update_time" json:"-"`
}

func (*Group) GetTableName() string { return "groups" }

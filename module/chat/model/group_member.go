package model

import "time"

// 成员角色
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// GroupMember 一条记录对应一个群 + 一个用户（唯一键: group_id+user_id）
type GroupMember struct {
	GroupID  string    `bson:"group_id" json:"groupId"`
	UserID   string    `bson:"user_id" json:"userId"`
	Role     string    `bson:"role" json:"role"`
	JoinTime time.Time `bson:"join_time" json:"joinTime"`
}

func (*GroupMember) GetTableName() string { return "group_members" }

package dto

import "time"

// AddMembersReq 群聊加人请求体
type AddMembersReq struct {
	ConversationID uint64   `json:"conversation_id" binding:"required"`
	UserIDs        []uint64 `json:"user_ids" binding:"required,min=1,dive,required"`
}

// RemoveMemberReq 群聊移除成员请求体
type RemoveMemberReq struct {
	ConversationID uint64 `json:"conversation_id" binding:"required"`
	UserID         uint64 `json:"user_id" binding:"required"`
}

// ChangeMemberRoleReq 变更成员角色请求体
type ChangeMemberRoleReq struct {
	ConversationID uint64 `json:"conversation_id" binding:"required"`
	UserID         uint64 `json:"user_id" binding:"required"`
	NewRole        string `json:"new_role" binding:"required,oneof=Admin Member"`
}

// MemberRoleView 查询自身角色的响应体
type MemberRoleView struct {
	ConversationID uint64 `json:"conversationId"`
	Role           string `json:"role"`
}

// MemberView 成员视图 (附带用户资料)
type MemberView struct {
	UserID      uint64    `json:"userId"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joinedAt"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
}

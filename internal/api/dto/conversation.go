package dto

import "time"

// CreateConversationReq 创建会话请求体
type CreateConversationReq struct {
	Type    int8     `json:"type" binding:"required,oneof=1 2"` // 1-单聊, 2-群聊
	Title   *string  `json:"title"`                             // 仅群聊有效
	Members []uint64 `json:"members" binding:"required,min=1,dive,required"`
}

// ConversationView 会话视图
// 单聊会附带对方用户的资料富化字段。
type ConversationView struct {
	ID            uint64    `json:"id"`
	Type          int8      `json:"type"`
	Title         *string   `json:"title"`
	CreatedBy     uint64    `json:"createdBy"`
	LastMessage   string    `json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`

	FriendID   uint64 `json:"friendId,omitempty"`
	FriendName string `json:"friendName,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

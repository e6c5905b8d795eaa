package dto

import "time"

// NotificationDTO 离线通知响应
type NotificationDTO struct {
	ID             string    `json:"id"`
	ConversationID uint64    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	Sender         uint64    `json:"sender"`
	Preview        string    `json:"preview"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UnreadCountDTO 未读数响应
type UnreadCountDTO struct {
	Count int64 `json:"count"`
}

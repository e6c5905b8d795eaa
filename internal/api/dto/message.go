package dto

import "time"

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	ConversationID uint64  `json:"conversation_id" binding:"required"`
	Type           string  `json:"type" binding:"required"` // Text / File / Image / Video / Audio
	Text           *string `json:"text"`
	MediaURL       *string `json:"media_url"`
}

// EditMessageReq 编辑消息请求体
type EditMessageReq struct {
	Text string `json:"text" binding:"required"`
}

// DeleteMessagesReq 批量删除请求体
type DeleteMessagesReq struct {
	MessageIDs []string `json:"message_ids" binding:"required,min=1,dive,required"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID             string    `json:"id"`
	ConversationID uint64    `json:"conversation_id"`
	Sender         uint64    `json:"sender"`
	Type           string    `json:"type"`
	Text           *string   `json:"text"`
	MediaURL       *string   `json:"media_url"`
	CreatedAt      time.Time `json:"createdAt"`
	IsEdited       bool      `json:"isEdited"`
	IsDeleted      bool      `json:"isDeleted"`
}

// DeleteResult 批量删除结果
type DeleteResult struct {
	DeletedCount int64 `json:"deleted_count"`
}

package model

import "time"

// Conversation 会话主表
type Conversation struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Type          int8      `gorm:"not null;default:1" json:"type"` // 1-单聊, 2-群聊
	Title         *string   `gorm:"type:varchar(128)" json:"title"` // 仅群聊有效
	CreatedBy     uint64    `gorm:"not null" json:"createdBy"`
	LastMessage   string    `gorm:"type:varchar(255)" json:"lastMessage"`
	LastMessageAt time.Time `gorm:"index" json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Conversation) TableName() string { return "conversations" }

// ConversationMember 会话成员表
type ConversationMember struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64    `gorm:"uniqueIndex:idx_conv_user" json:"conversationId"`
	UserID         uint64    `gorm:"uniqueIndex:idx_conv_user;index" json:"userId"`
	Role           string    `gorm:"type:varchar(16);not null;default:'Member'" json:"role"` // Admin / Member
	JoinedAt       time.Time `json:"joinedAt"`

	Conversation Conversation `gorm:"foreignKey:ConversationID;references:ID" json:"conversation"`
}

func (ConversationMember) TableName() string { return "conversation_members" }

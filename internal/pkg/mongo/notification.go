package mongo

import "time"

// Notification 离线消息通知记录
// 接收者不在线时由 Kafka 消费端落库, 上线后通过通知接口拉取。
type Notification struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	UserID         uint64    `bson:"user_id" json:"userId"`
	ConversationID uint64    `bson:"conversation_id" json:"conversationId"`
	MessageID      string    `bson:"message_id" json:"messageId"`
	Sender         uint64    `bson:"sender" json:"sender"`
	Preview        string    `bson:"preview" json:"preview"` // 文本摘要或类型占位
	IsRead         bool      `bson:"is_read" json:"isRead"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}

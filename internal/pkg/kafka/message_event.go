package kafka

import "time"

// MessageEvent 每条新消息落库后发往 Kafka 的事件
// 通知消费者据此为离线成员生成未读通知。
type MessageEvent struct {
	ConversationID uint64    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	Sender         uint64    `json:"sender"`
	Preview        string    `json:"preview"`
	MemberIDs      []uint64  `json:"memberIds"`
	CreatedAt      time.Time `json:"createdAt"`
}

package mongo

import (
	"time"
)

// Message MongoDB 消息明细模型
type Message struct {
	ID             string    `bson:"_id,omitempty" json:"id"`               // MongoDB 自动生成的 ObjectID
	ConversationID uint64    `bson:"conversation_id" json:"conversationId"` // 关联 MySQL 的会话 ID
	Sender         uint64    `bson:"sender" json:"sender"`                  // 发送者 UID
	Type           string    `bson:"type" json:"type"`                      // Text / File / Image / Video / Audio
	Text           *string   `bson:"text,omitempty" json:"text"`            // 文本内容 (Text 类型必填)
	MediaURL       *string   `bson:"media_url,omitempty" json:"mediaUrl"`   // 媒体地址 (非 Text 类型必填)
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`           // 消息发送时间
	IsEdited       bool      `bson:"is_edited" json:"isEdited"`             // 是否被编辑过
	IsDeleted      bool      `bson:"is_deleted" json:"isDeleted"`           // 软删除标记, 不做物理删除
}

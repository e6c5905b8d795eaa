package ws

import (
	"github.com/goccy/go-json"
)

// 客户端上行事件
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventTypingStarted     = "typing_started"
	EventTypingStopped     = "typing_stopped"
)

// 服务端下行事件
const (
	EventOnlineUsers            = "online_users"
	EventNewDirectMessage       = "new_direct_message"
	EventNewGroupMessage        = "new_group_message"
	EventNewMessageNotification = "new_message_notification"
	EventUpdateMessage          = "update_message"
	EventDeleteMessage          = "delete_message"
	EventAuthError              = "auth_error"
)

// Frame 连接上双向流转的帧
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame 组帧, payload 序列化失败时返回 nil (调用方记日志后丢弃)
func EncodeFrame(event string, payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	frame, err := json.Marshal(&Frame{Event: event, Data: data})
	if err != nil {
		return nil
	}
	return frame
}

// BusEvent 共享总线 (Redis 频道) 上流转的事件信封
// 多实例部署时每个实例都会收到, 各自转发给本实例持有的连接。
type BusEvent struct {
	Event          string          `json:"event"`
	ConversationID uint64          `json:"conversation_id"`
	Sender         uint64          `json:"sender,omitempty"`
	MemberIDs      []uint64        `json:"member_ids,omitempty"`
	Preview        string          `json:"preview,omitempty"`
	Payload        json.RawMessage `json:"payload"`
}

// NewMessagePayload 新消息全量载荷 (房间内广播)
type NewMessagePayload struct {
	ConversationID uint64  `json:"conversationId"`
	MessageID      string  `json:"messageId"`
	Sender         uint64  `json:"sender"`
	MessageType    string  `json:"messageType"`
	Text           *string `json:"text,omitempty"`
	MediaURL       *string `json:"mediaUrl,omitempty"`
}

// NotificationPayload 轻量新消息提醒 (发给在线但不在房间的成员)
type NotificationPayload struct {
	ConversationID uint64 `json:"conversationId"`
	Sender         uint64 `json:"sender"`
	Preview        string `json:"preview"`
}

// UpdateMessagePayload 消息编辑载荷 (仅房间内广播)
type UpdateMessagePayload struct {
	ConversationID uint64  `json:"conversationId"`
	MessageID      string  `json:"messageId"`
	Text           *string `json:"text"`
	IsEdited       bool    `json:"isEdited"`
}

// DeleteMessagePayload 消息删除载荷 (仅房间内广播)
type DeleteMessagePayload struct {
	ConversationID uint64   `json:"conversationId"`
	MessageIDs     []string `json:"messageIds"`
}

// TypingPayload 正在输入提示
type TypingPayload struct {
	ConversationID uint64 `json:"conversationId"`
	UserID         uint64 `json:"userId"`
}

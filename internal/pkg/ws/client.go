package ws

import (
	"context"
	stderr "errors"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var ErrNotRoomMember = stderr.New("不是该会话成员, 无法加入房间")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
)

// Client 单条 websocket 连接
type Client struct {
	ID     string
	UserID uint64
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	// rooms 本连接加入的会话房间, 由 hub 持锁维护
	rooms map[uint64]struct{}
}

func NewClient(id string, userID uint64, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		rooms:  make(map[uint64]struct{}),
	}
}

// Enqueue 投递一帧, 发送队列满则丢帧保护慢连接
func (c *Client) Enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		log.Warn("发送队列已满, 丢弃帧", "connId", c.ID, "userId", c.UserID)
	}
}

// ReadPump 读循环, 退出时注销连接
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(ctx, c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket 读取异常", "connId", c.ID, "error", err)
			}
			return
		}
		c.handleFrame(ctx, raw)
	}
}

// WritePump 写循环, 定期发心跳
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type roomRequest struct {
	ConversationID uint64 `json:"conversationId"`
}

func (c *Client) handleFrame(ctx context.Context, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Warn("无法解析的帧", "connId", c.ID, "error", err)
		return
	}
	switch frame.Event {
	case EventJoinConversation:
		var req roomRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			return
		}
		if err := c.hub.JoinRoom(ctx, c, req.ConversationID); err != nil {
			log.Warn("加入房间被拒绝", "connId", c.ID, "userId", c.UserID,
				"conversationId", req.ConversationID, "error", err)
		}
	case EventLeaveConversation:
		var req roomRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			return
		}
		c.hub.LeaveRoom(c, req.ConversationID)
	case EventTypingStarted, EventTypingStopped:
		var req roomRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			return
		}
		// 只转发给同房间的其他连接, 不落库; 未入房的连接不允许转发
		if _, ok := c.rooms[req.ConversationID]; !ok {
			return
		}
		payload := &TypingPayload{ConversationID: req.ConversationID, UserID: c.UserID}
		c.hub.SendToRoom(req.ConversationID, EncodeFrame(frame.Event, payload), c.ID)
	default:
		log.Debug("忽略未知事件", "connId", c.ID, "event", frame.Event)
	}
}

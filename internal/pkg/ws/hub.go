package ws

import (
	"context"
	log "log/slog"
	"sync"
)

// MembershipChecker 入房前的成员资格校验, 由业务层注入
type MembershipChecker interface {
	CheckIsMember(ctx context.Context, convID, userID uint64) (bool, error)
}

// Hub 本实例的连接注册表
// 三个索引: 连接 ID → 连接, 用户 → 连接集合 (多端), 会话房间 → 连接集合。
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]*Client
	userConns  map[uint64]map[string]*Client
	rooms      map[uint64]map[string]*Client
	presence   *Presence
	membership MembershipChecker
}

func NewHub(presence *Presence, membership MembershipChecker) *Hub {
	return &Hub{
		conns:      make(map[string]*Client),
		userConns:  make(map[uint64]map[string]*Client),
		rooms:      make(map[uint64]map[string]*Client),
		presence:   presence,
		membership: membership,
	}
}

func (h *Hub) Presence() *Presence {
	return h.presence
}

// Register 登记新连接并广播在线列表 (状态有变化时)
func (h *Hub) Register(ctx context.Context, c *Client) {
	h.mu.Lock()
	h.conns[c.ID] = c
	if h.userConns[c.UserID] == nil {
		h.userConns[c.UserID] = make(map[string]*Client)
	}
	h.userConns[c.UserID][c.ID] = c
	h.mu.Unlock()

	first, err := h.presence.Connect(ctx, c.UserID)
	if err != nil {
		log.Warn("登记在线状态失败", "userId", c.UserID, "error", err)
	}
	if first {
		h.broadcastOnlineUsers(ctx)
	}
	log.Info("websocket 连接建立", "connId", c.ID, "userId", c.UserID)
}

// Unregister 注销连接, 清理其加入的所有房间
func (h *Hub) Unregister(ctx context.Context, c *Client) {
	h.mu.Lock()
	if _, ok := h.conns[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.ID)
	if set := h.userConns[c.UserID]; set != nil {
		delete(set, c.ID)
		if len(set) == 0 {
			delete(h.userConns, c.UserID)
		}
	}
	for convID := range c.rooms {
		if room := h.rooms[convID]; room != nil {
			delete(room, c.ID)
			if len(room) == 0 {
				delete(h.rooms, convID)
			}
		}
	}
	h.mu.Unlock()

	last, err := h.presence.Disconnect(ctx, c.UserID)
	if err != nil {
		log.Warn("注销在线状态失败", "userId", c.UserID, "error", err)
	}
	if last {
		h.broadcastOnlineUsers(ctx)
	}
	log.Info("websocket 连接关闭", "connId", c.ID, "userId", c.UserID)
}

// JoinRoom 加入会话房间, 非成员拒绝
func (h *Hub) JoinRoom(ctx context.Context, c *Client, convID uint64) error {
	ok, err := h.membership.CheckIsMember(ctx, convID, c.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotRoomMember
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[convID] == nil {
		h.rooms[convID] = make(map[string]*Client)
	}
	h.rooms[convID][c.ID] = c
	c.rooms[convID] = struct{}{}
	return nil
}

// LeaveRoom 退出会话房间, 未加入时为空操作
func (h *Hub) LeaveRoom(c *Client, convID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room := h.rooms[convID]; room != nil {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(h.rooms, convID)
		}
	}
	delete(c.rooms, convID)
}

// SendToRoom 发给房间内所有连接, exceptConn 非空时跳过该连接
func (h *Hub) SendToRoom(convID uint64, frame []byte, exceptConn string) {
	if frame == nil {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[convID]))
	for id, c := range h.rooms[convID] {
		if id == exceptConn {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.Enqueue(frame)
	}
}

// SendToUserOutsideRoom 发给某用户所有「不在指定房间」的连接
// 用于给在线但没打开该会话的成员推轻量提醒。
func (h *Hub) SendToUserOutsideRoom(userID, convID uint64, frame []byte) {
	if frame == nil {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0)
	for _, c := range h.userConns[userID] {
		if _, inRoom := c.rooms[convID]; inRoom {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.Enqueue(frame)
	}
}

// BroadcastAll 发给本实例全部连接
func (h *Hub) BroadcastAll(frame []byte) {
	if frame == nil {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.conns))
	for _, c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.Enqueue(frame)
	}
}

func (h *Hub) broadcastOnlineUsers(ctx context.Context) {
	users, err := h.presence.OnlineUsers(ctx)
	if err != nil {
		log.Warn("获取在线用户列表失败", "error", err)
		return
	}
	h.BroadcastAll(EncodeFrame(EventOnlineUsers, users))
}

package handler

import (
	"Parley/internal/pkg/security"
	"Parley/internal/pkg/ws"
	"context"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	hub *ws.Hub
}

func NewWsHandler(hub *ws.Hub) *WsHandler {
	return &WsHandler{hub: hub}
}

// Connect websocket 接入
// 先升级再校验令牌, 校验失败时下发 auth_error 帧后关闭,
// 让客户端能区分鉴权失败和网络断开。
func (s *WsHandler) Connect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}

	token := c.Query("token")
	claims, err := security.ValidateToken(token)
	if token == "" || err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		_ = conn.WriteMessage(websocket.TextMessage, ws.EncodeFrame(ws.EventAuthError, gin.H{
			"message": "Token 无效或已过期",
		}))
		_ = conn.Close()
		return
	}

	// 连接生命周期超出本次 HTTP 请求, 不能复用请求的 Context
	ctx := context.Background()
	client := ws.NewClient(uuid.New().String(), claims.UserID, s.hub, conn)
	s.hub.Register(ctx, client)

	go client.WritePump()
	go client.ReadPump(ctx)
}

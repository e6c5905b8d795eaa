package api

import "Parley/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	ConversationHandler *handler.ConversationHandler
	MemberHandler       *handler.MemberHandler
	MessageHandler      *handler.MessageHandler
	NotificationHandler *handler.NotificationHandler
	WsHandler           *handler.WsHandler
}

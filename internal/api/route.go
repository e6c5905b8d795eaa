package api

import (
	"Parley/internal/api/middleware"
	"Parley/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		// websocket 接入走 query token 鉴权, 不挂 Auth 中间件
		apiGroup.GET("/ws/connect", group.WsHandler.Connect)

		convGroup := apiGroup.Group("/conversation")
		convGroup.Use(middleware.AuthMiddleware())
		{
			convGroup.POST("", group.ConversationHandler.CreateConversation)
			convGroup.GET("/list", group.ConversationHandler.GetConversationList)
			convGroup.GET("/:conversation_id", group.ConversationHandler.GetConversation)

			convGroup.GET("/:conversation_id/members", group.MemberHandler.GetMembers)
			convGroup.GET("/:conversation_id/member/role", group.MemberHandler.GetMemberRole)
			convGroup.POST("/member", group.MemberHandler.AddMembers)
			convGroup.DELETE("/member", group.MemberHandler.RemoveMember)
			convGroup.PUT("/member/role", group.MemberHandler.ChangeMemberRole)
		}

		messageGroup := apiGroup.Group("/message")
		messageGroup.Use(middleware.AuthMiddleware())
		{
			messageGroup.POST("", group.MessageHandler.SendMessage)
			messageGroup.GET("/list/:conversation_id", group.MessageHandler.GetMessages)
			messageGroup.PUT("/:message_id", group.MessageHandler.EditMessage)
			messageGroup.DELETE("", group.MessageHandler.DeleteMessages)
		}

		notificationGroup := apiGroup.Group("/notification")
		notificationGroup.Use(middleware.AuthMiddleware())
		{
			notificationGroup.GET("/list", group.NotificationHandler.GetNotifications)
			notificationGroup.GET("/unread/count", group.NotificationHandler.GetUnreadCount)
			notificationGroup.PUT("/read", group.NotificationHandler.MarkAllRead)
		}
	}

	return r
}

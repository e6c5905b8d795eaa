package handler

import (
	"Parley/internal/api/dto"
	"Parley/internal/pkg/response"
	"Parley/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageSvc service.MessageService
}

func NewMessageHandler(messageSvc service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageSvc: messageSvc,
	}
}

func (s *MessageHandler) SendMessage(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	msg, err := s.messageSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}

func (s *MessageHandler) EditMessage(c *gin.Context) {
	userID := c.GetUint64("user_id")
	messageID := c.Param("message_id")

	var req dto.EditMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	msg, err := s.messageSvc.Edit(c.Request.Context(), userID, messageID, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}

func (s *MessageHandler) DeleteMessages(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.DeleteMessagesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	result, err := s.messageSvc.Delete(c.Request.Context(), userID, req.MessageIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *MessageHandler) GetMessages(c *gin.Context) {
	userID := c.GetUint64("user_id")
	convID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	msgs, err := s.messageSvc.GetAll(c.Request.Context(), userID, convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msgs)
}

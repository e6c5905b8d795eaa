package handler

import (
	"Parley/internal/api/dto"
	"Parley/internal/pkg/response"
	"Parley/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	convSvc service.ConversationService
}

func NewConversationHandler(convSvc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		convSvc: convSvc,
	}
}

func (s *ConversationHandler) CreateConversation(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.CreateConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	view, err := s.convSvc.CreateConversation(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

func (s *ConversationHandler) GetConversation(c *gin.Context) {
	userID := c.GetUint64("user_id")

	convID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	view, err := s.convSvc.GetConversation(c.Request.Context(), convID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

func (s *ConversationHandler) GetConversationList(c *gin.Context) {
	userID := c.GetUint64("user_id")

	views, err := s.convSvc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, views)
}

package handler

import (
	"Parley/internal/api/dto"
	"Parley/internal/pkg/response"
	"Parley/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberSvc service.MemberService
}

func NewMemberHandler(memberSvc service.MemberService) *MemberHandler {
	return &MemberHandler{
		memberSvc: memberSvc,
	}
}

func (s *MemberHandler) GetMembers(c *gin.Context) {
	userID := c.GetUint64("user_id")

	convID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	members, err := s.memberSvc.GetMembers(c.Request.Context(), convID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

func (s *MemberHandler) GetMemberRole(c *gin.Context) {
	userID := c.GetUint64("user_id")

	convID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	role, err := s.memberSvc.GetMemberRole(c.Request.Context(), convID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.MemberRoleView{ConversationID: convID, Role: role})
}

func (s *MemberHandler) AddMembers(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.AddMembersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	if err := s.memberSvc.AddMembers(c.Request.Context(), userID, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *MemberHandler) RemoveMember(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.RemoveMemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	if err := s.memberSvc.RemoveMember(c.Request.Context(), userID, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *MemberHandler) ChangeMemberRole(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.ChangeMemberRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	if err := s.memberSvc.ChangeMemberRole(c.Request.Context(), userID, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

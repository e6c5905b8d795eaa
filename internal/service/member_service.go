package service

import (
	"Parley/internal/api/dto"
	"Parley/internal/model"
	"Parley/internal/pkg/cache"
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/userclient"
	"Parley/internal/repository"
	"context"
	stderr "errors"
	log "log/slog"

	"gorm.io/gorm"
)

// MemberService 会话成员资格与群成员管理
// 所有写路径的权限判定都收口到这里。
type MemberService interface {
	CheckIsMember(ctx context.Context, convID, userID uint64) (bool, error)
	GetMemberRole(ctx context.Context, convID, userID uint64) (string, error)
	RequireAdmin(ctx context.Context, convID, userID uint64) error
	GetMembers(ctx context.Context, convID, userID uint64) ([]*dto.MemberView, error)
	AddMembers(ctx context.Context, operator uint64, req *dto.AddMembersReq) error
	RemoveMember(ctx context.Context, operator uint64, req *dto.RemoveMemberReq) error
	ChangeMemberRole(ctx context.Context, operator uint64, req *dto.ChangeMemberRoleReq) error
}

type memberServiceImpl struct {
	convRepo   repository.ConversationRepo
	memberRepo repository.MemberRepo
	userClient userclient.Client
	listCache  *cache.ConversationListCache
}

func NewMemberService(
	convRepo repository.ConversationRepo,
	memberRepo repository.MemberRepo,
	userClient userclient.Client,
	listCache *cache.ConversationListCache,
) MemberService {
	return &memberServiceImpl{
		convRepo:   convRepo,
		memberRepo: memberRepo,
		userClient: userClient,
		listCache:  listCache,
	}
}

// CheckIsMember 判断用户是否会话成员, 会话不存在返回 ErrConversationNotFound
func (s *memberServiceImpl) CheckIsMember(ctx context.Context, convID, userID uint64) (bool, error) {
	exist, err := s.convRepo.Exists(ctx, convID)
	if err != nil {
		log.Error("查询会话失败", "conversationId", convID, "error", err)
		return false, UnExpectedError
	}
	if !exist {
		return false, ErrConversationNotFound
	}
	ok, err := s.memberRepo.IsMember(ctx, convID, userID)
	if err != nil {
		log.Error("查询成员资格失败", "conversationId", convID, "userId", userID, "error", err)
		return false, UnExpectedError
	}
	return ok, nil
}

// GetMemberRole 获取用户在会话中的角色
// 会话不存在返回 ErrConversationNotFound, 非成员返回 ErrNotMember
func (s *memberServiceImpl) GetMemberRole(ctx context.Context, convID, userID uint64) (string, error) {
	exist, err := s.convRepo.Exists(ctx, convID)
	if err != nil {
		log.Error("查询会话失败", "conversationId", convID, "error", err)
		return "", UnExpectedError
	}
	if !exist {
		return "", ErrConversationNotFound
	}
	member, err := s.memberRepo.GetMember(ctx, convID, userID)
	if err != nil {
		if stderr.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotMember
		}
		log.Error("查询成员角色失败", "conversationId", convID, "userId", userID, "error", err)
		return "", UnExpectedError
	}
	return member.Role, nil
}

// RequireAdmin 仅 Admin 放行
func (s *memberServiceImpl) RequireAdmin(ctx context.Context, convID, userID uint64) error {
	role, err := s.GetMemberRole(ctx, convID, userID)
	if err != nil {
		return err
	}
	if role != consts.RoleAdmin {
		return ErrNotAdmin
	}
	return nil
}

// GetMembers 成员列表, 附带用户服务的资料富化
func (s *memberServiceImpl) GetMembers(ctx context.Context, convID, userID uint64) ([]*dto.MemberView, error) {
	ok, err := s.CheckIsMember(ctx, convID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	members, err := s.memberRepo.ListMembers(ctx, convID)
	if err != nil {
		log.Error("查询成员列表失败", "conversationId", convID, "error", err)
		return nil, UnExpectedError
	}

	userIDs := make([]uint64, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	profiles, err := s.userClient.GetUserProfiles(ctx, userIDs)
	if err != nil {
		// 资料服务不可用时降级, 成员列表本身仍可返回
		log.Warn("批量获取用户资料失败", "error", err)
		profiles = map[uint64]*userclient.Profile{}
	}

	views := make([]*dto.MemberView, 0, len(members))
	for _, m := range members {
		view := &dto.MemberView{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
		if p, ok := profiles[m.UserID]; ok {
			view.DisplayName = p.DisplayName
			view.AvatarURL = p.AvatarURL
		}
		views = append(views, view)
	}
	return views, nil
}

// AddMembers 群聊加人, 操作者需为 Admin
func (s *memberServiceImpl) AddMembers(ctx context.Context, operator uint64, req *dto.AddMembersReq) error {
	conv, err := s.getGroupConversation(ctx, req.ConversationID)
	if err != nil {
		return err
	}
	if err := s.RequireAdmin(ctx, conv.ID, operator); err != nil {
		return err
	}

	// 去重并校验目标用户确实存在
	userIDs := dedupeIDs(req.UserIDs)
	profiles, err := s.userClient.GetUserProfiles(ctx, userIDs)
	if err != nil {
		return err
	}
	for _, id := range userIDs {
		if _, ok := profiles[id]; !ok {
			return userclient.ErrProfileNotFound
		}
	}
	for _, id := range userIDs {
		exist, err := s.memberRepo.IsMember(ctx, conv.ID, id)
		if err != nil {
			log.Error("查询成员资格失败", "conversationId", conv.ID, "userId", id, "error", err)
			return UnExpectedError
		}
		if exist {
			return ErrMemberExist
		}
	}

	members := make([]*model.ConversationMember, 0, len(userIDs))
	for _, id := range userIDs {
		members = append(members, &model.ConversationMember{
			ConversationID: conv.ID,
			UserID:         id,
			Role:           consts.RoleMember,
		})
	}
	if err := s.memberRepo.AddMembers(ctx, conv.ID, members); err != nil {
		log.Error("添加成员失败", "conversationId", conv.ID, "error", err)
		return UnExpectedError
	}
	// 新成员的会话列表多了一条
	s.listCache.Invalidate(ctx, userIDs...)
	return nil
}

// RemoveMember 群聊移除成员, 操作者需为 Admin
func (s *memberServiceImpl) RemoveMember(ctx context.Context, operator uint64, req *dto.RemoveMemberReq) error {
	conv, err := s.getGroupConversation(ctx, req.ConversationID)
	if err != nil {
		return err
	}
	if err := s.RequireAdmin(ctx, conv.ID, operator); err != nil {
		return err
	}
	rows, err := s.memberRepo.RemoveMember(ctx, conv.ID, req.UserID)
	if err != nil {
		log.Error("移除成员失败", "conversationId", conv.ID, "userId", req.UserID, "error", err)
		return UnExpectedError
	}
	if rows == 0 {
		return ErrMemberNotFound
	}
	s.listCache.Invalidate(ctx, req.UserID)
	return nil
}

// ChangeMemberRole 变更群成员角色
// 目标行不存在时直接报错, 不做补插。
func (s *memberServiceImpl) ChangeMemberRole(ctx context.Context, operator uint64, req *dto.ChangeMemberRoleReq) error {
	if req.NewRole != consts.RoleAdmin && req.NewRole != consts.RoleMember {
		return ErrInvalidRole
	}
	conv, err := s.getGroupConversation(ctx, req.ConversationID)
	if err != nil {
		return err
	}
	if err := s.RequireAdmin(ctx, conv.ID, operator); err != nil {
		return err
	}
	rows, err := s.memberRepo.UpdateRole(ctx, conv.ID, req.UserID, req.NewRole)
	if err != nil {
		log.Error("变更成员角色失败", "conversationId", conv.ID, "userId", req.UserID, "error", err)
		return UnExpectedError
	}
	if rows == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// getGroupConversation 取会话并拒绝单聊上的成员变更
func (s *memberServiceImpl) getGroupConversation(ctx context.Context, convID uint64) (*model.Conversation, error) {
	conv, err := s.convRepo.GetConversation(ctx, convID)
	if err != nil {
		if stderr.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		log.Error("查询会话失败", "conversationId", convID, "error", err)
		return nil, UnExpectedError
	}
	if conv.Type != consts.ConvTypeGroup {
		return nil, ErrDirectImmutable
	}
	return conv, nil
}

// dedupeIDs 保序去重
func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

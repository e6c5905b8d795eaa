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
	"time"

	"gorm.io/gorm"
)

type ConversationService interface {
	CreateConversation(ctx context.Context, createdBy uint64, req *dto.CreateConversationReq) (*dto.ConversationView, error)
	GetConversation(ctx context.Context, convID, userID uint64) (*dto.ConversationView, error)
	ListForUser(ctx context.Context, userID uint64) ([]*dto.ConversationView, error)
	UpdateLastMessage(ctx context.Context, convID uint64, snapshot string, at time.Time) error
}

type conversationServiceImpl struct {
	convRepo   repository.ConversationRepo
	memberRepo repository.MemberRepo
	userClient userclient.Client
	listCache  *cache.ConversationListCache
}

func NewConversationService(
	convRepo repository.ConversationRepo,
	memberRepo repository.MemberRepo,
	userClient userclient.Client,
	listCache *cache.ConversationListCache,
) ConversationService {
	return &conversationServiceImpl{
		convRepo:   convRepo,
		memberRepo: memberRepo,
		userClient: userClient,
		listCache:  listCache,
	}
}

// CreateConversation 创建会话
// 单聊恰好两名成员且都是 Member; 群聊创建者为 Admin, 其余为 Member。
func (s *conversationServiceImpl) CreateConversation(ctx context.Context, createdBy uint64, req *dto.CreateConversationReq) (*dto.ConversationView, error) {
	memberIDs := dedupeIDs(append([]uint64{createdBy}, req.Members...))

	if req.Type == consts.ConvTypeDirect && len(memberIDs) != 2 {
		return nil, ErrDirectMemberCount
	}

	// 目标用户必须真实存在
	profiles, err := s.userClient.GetUserProfiles(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range memberIDs {
		if _, ok := profiles[id]; !ok {
			return nil, userclient.ErrProfileNotFound
		}
	}

	conv := &model.Conversation{
		Type:          req.Type,
		CreatedBy:     createdBy,
		LastMessageAt: time.Now(),
	}
	if req.Type == consts.ConvTypeGroup {
		conv.Title = req.Title
	}

	members := make([]*model.ConversationMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		role := consts.RoleMember
		if req.Type == consts.ConvTypeGroup && id == createdBy {
			role = consts.RoleAdmin
		}
		members = append(members, &model.ConversationMember{
			UserID: id,
			Role:   role,
		})
	}

	if err := s.convRepo.CreateConversation(ctx, conv, members); err != nil {
		log.Error("创建会话失败", "createdBy", createdBy, "error", err)
		return nil, UnExpectedError
	}
	s.listCache.Invalidate(ctx, memberIDs...)

	return s.buildView(conv, createdBy, profiles), nil
}

// GetConversation 会话详情, 单聊附带对方资料
func (s *conversationServiceImpl) GetConversation(ctx context.Context, convID, userID uint64) (*dto.ConversationView, error) {
	conv, err := s.convRepo.GetConversation(ctx, convID)
	if err != nil {
		if stderr.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		log.Error("查询会话失败", "conversationId", convID, "error", err)
		return nil, UnExpectedError
	}
	if conv.Type != consts.ConvTypeDirect {
		return s.buildView(conv, userID, nil), nil
	}

	friendID, err := s.friendOf(ctx, conv.ID, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.userClient.GetUserProfile(ctx, friendID)
	if err != nil {
		return nil, err
	}
	return s.buildView(conv, userID, map[uint64]*userclient.Profile{friendID: profile}), nil
}

// ListForUser 用户会话列表, 整表缓存五分钟
func (s *conversationServiceImpl) ListForUser(ctx context.Context, userID uint64) ([]*dto.ConversationView, error) {
	var cached []*dto.ConversationView
	if s.listCache.Get(ctx, userID, &cached) {
		return cached, nil
	}

	conversations, err := s.convRepo.GetUserConversations(ctx, userID)
	if err != nil {
		log.Error("查询会话列表失败", "userId", userID, "error", err)
		return nil, UnExpectedError
	}

	// 收齐单聊对端后一次批量拉资料
	friendIDs := make(map[uint64]uint64, len(conversations))
	peerIDs := make([]uint64, 0, len(conversations))
	for _, conv := range conversations {
		if conv.Type != consts.ConvTypeDirect {
			continue
		}
		friendID, err := s.friendOf(ctx, conv.ID, userID)
		if err != nil {
			log.Warn("查询单聊对端失败", "conversationId", conv.ID, "error", err)
			continue
		}
		friendIDs[conv.ID] = friendID
		peerIDs = append(peerIDs, friendID)
	}
	profiles, err := s.userClient.GetUserProfiles(ctx, peerIDs)
	if err != nil {
		// 资料服务故障时列表降级返回, 不缓存半成品
		log.Warn("批量获取用户资料失败", "error", err)
		profiles = map[uint64]*userclient.Profile{}
	}

	views := make([]*dto.ConversationView, 0, len(conversations))
	for _, conv := range conversations {
		view := s.buildView(conv, userID, nil)
		if friendID, ok := friendIDs[conv.ID]; ok {
			view.FriendID = friendID
			if p, ok := profiles[friendID]; ok {
				view.FriendName = p.DisplayName
				view.ImageURL = p.AvatarURL
			} else {
				view.FriendName = "Unknown"
			}
		}
		views = append(views, view)
	}

	if len(profiles) > 0 || len(peerIDs) == 0 {
		s.listCache.Set(ctx, userID, views)
	}
	return views, nil
}

// UpdateLastMessage 更新会话预览快照并使相关列表缓存失效
// 会话行不存在时报错, 绝不补插。
func (s *conversationServiceImpl) UpdateLastMessage(ctx context.Context, convID uint64, snapshot string, at time.Time) error {
	rows, err := s.convRepo.UpdateLastMessage(ctx, convID, snapshot, at)
	if err != nil {
		log.Error("更新会话快照失败", "conversationId", convID, "error", err)
		return UnExpectedError
	}
	if rows == 0 {
		return ErrConversationNotFound
	}
	memberIDs, err := s.memberRepo.MemberUserIDs(ctx, convID)
	if err != nil {
		log.Warn("查询会话成员失败, 跳过列表缓存失效", "conversationId", convID, "error", err)
		return nil
	}
	s.listCache.Invalidate(ctx, memberIDs...)
	return nil
}

// friendOf 单聊中对方的用户 ID
func (s *conversationServiceImpl) friendOf(ctx context.Context, convID, userID uint64) (uint64, error) {
	memberIDs, err := s.memberRepo.MemberUserIDs(ctx, convID)
	if err != nil {
		log.Error("查询会话成员失败", "conversationId", convID, "error", err)
		return 0, UnExpectedError
	}
	for _, id := range memberIDs {
		if id != userID {
			return id, nil
		}
	}
	return 0, ErrMemberNotFound
}

func (s *conversationServiceImpl) buildView(conv *model.Conversation, userID uint64, profiles map[uint64]*userclient.Profile) *dto.ConversationView {
	view := &dto.ConversationView{
		ID:            conv.ID,
		Type:          conv.Type,
		Title:         conv.Title,
		CreatedBy:     conv.CreatedBy,
		LastMessage:   conv.LastMessage,
		LastMessageAt: conv.LastMessageAt,
		CreatedAt:     conv.CreatedAt,
	}
	if conv.Type == consts.ConvTypeDirect && profiles != nil {
		for id, p := range profiles {
			if id == userID || p == nil {
				continue
			}
			view.FriendID = id
			view.FriendName = p.DisplayName
			view.ImageURL = p.AvatarURL
		}
	}
	return view
}

package repository

import (
	"Parley/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type MemberRepo interface {
	IsMember(ctx context.Context, convID uint64, userID uint64) (bool, error)
	GetMember(ctx context.Context, convID uint64, userID uint64) (*model.ConversationMember, error)
	ListMembers(ctx context.Context, convID uint64) ([]*model.ConversationMember, error)
	MemberUserIDs(ctx context.Context, convID uint64) ([]uint64, error)
	AddMembers(ctx context.Context, convID uint64, members []*model.ConversationMember) error
	RemoveMember(ctx context.Context, convID uint64, userID uint64) (int64, error)
	UpdateRole(ctx context.Context, convID uint64, userID uint64, role string) (int64, error)
}

type memberRepoImpl struct {
	db *gorm.DB
}

func NewMemberRepo(db *gorm.DB) MemberRepo {
	return &memberRepoImpl{db: db}
}

// IsMember 检查用户是否是会话成员 (不区分角色)
func (s *memberRepoImpl) IsMember(ctx context.Context, convID uint64, userID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetMember 获取成员记录
func (s *memberRepoImpl) GetMember(ctx context.Context, convID uint64, userID uint64) (*model.ConversationMember, error) {
	var member model.ConversationMember
	err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers 获取会话全部成员
func (s *memberRepoImpl) ListMembers(ctx context.Context, convID uint64) ([]*model.ConversationMember, error) {
	var members []*model.ConversationMember
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("joined_at ASC, id ASC").
		Find(&members).Error
	return members, err
}

// MemberUserIDs 获取会话全部成员的用户 ID
func (s *memberRepoImpl) MemberUserIDs(ctx context.Context, convID uint64) ([]uint64, error) {
	var userIDs []uint64
	err := s.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_id = ?", convID).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// AddMembers 批量加入成员, (conversation_id, user_id) 唯一索引兜底防止重复加入
func (s *memberRepoImpl) AddMembers(ctx context.Context, convID uint64, members []*model.ConversationMember) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range members {
			m.ConversationID = convID
			m.JoinedAt = time.Now()
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveMember 移除成员, 返回受影响行数
func (s *memberRepoImpl) RemoveMember(ctx context.Context, convID uint64, userID uint64) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Delete(&model.ConversationMember{})
	return res.RowsAffected, res.Error
}

// UpdateRole 变更成员角色, 只更新已存在的行
func (s *memberRepoImpl) UpdateRole(ctx context.Context, convID uint64, userID uint64, role string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Update("role", role)
	return res.RowsAffected, res.Error
}

package repository

import (
	"Parley/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type ConversationRepo interface {
	CreateConversation(ctx context.Context, conv *model.Conversation, members []*model.ConversationMember) error
	GetConversation(ctx context.Context, convID uint64) (*model.Conversation, error)
	Exists(ctx context.Context, convID uint64) (bool, error)
	UpdateLastMessage(ctx context.Context, convID uint64, snapshot string, at time.Time) (int64, error)
	GetUserConversations(ctx context.Context, userID uint64) ([]*model.Conversation, error)
}

type conversationRepoImpl struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db}
}

// CreateConversation 开启事务创建会话及初始成员
func (s *conversationRepoImpl) CreateConversation(ctx context.Context, conv *model.Conversation, members []*model.ConversationMember) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, m := range members {
			m.ConversationID = conv.ID
			m.JoinedAt = time.Now()
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetConversation 根据会话 ID 获取会话
func (s *conversationRepoImpl) GetConversation(ctx context.Context, convID uint64) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).First(&conv, convID).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Exists 检查会话是否存在
func (s *conversationRepoImpl) Exists(ctx context.Context, convID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", convID).
		Count(&count).Error
	return count > 0, err
}

// UpdateLastMessage 更新会话预览快照
// 只更新已存在的行, 返回受影响行数; 不做 upsert,
// 避免用过期 ID 调用时凭空造出幻影会话。
func (s *conversationRepoImpl) UpdateLastMessage(ctx context.Context, convID uint64, snapshot string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", convID).
		Updates(map[string]interface{}{
			"last_message":    snapshot,
			"last_message_at": at,
		})
	return res.RowsAffected, res.Error
}

// GetUserConversations 联表查出用户参与的全部会话, 按最后消息时间倒序
func (s *conversationRepoImpl) GetUserConversations(ctx context.Context, userID uint64) ([]*model.Conversation, error) {
	var conversations []*model.Conversation
	err := s.db.WithContext(ctx).Table("conversations c").
		Select("c.*").
		Joins("JOIN conversation_members m ON m.conversation_id = c.id").
		Where("m.user_id = ?", userID).
		Order("c.last_message_at DESC").
		Find(&conversations).Error
	return conversations, err
}

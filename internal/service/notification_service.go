package service

import (
	"Parley/internal/api/dto"
	"Parley/internal/pkg/mongo"
	"context"
	log "log/slog"

	"github.com/jinzhu/copier"
)

const notificationPageSize = 50

// NotificationService 离线未读通知的查询入口
// 写入全部由 Kafka 消费者完成, 这里只读和置已读。
type NotificationService interface {
	List(ctx context.Context, userID uint64) ([]*dto.NotificationDTO, error)
	CountUnread(ctx context.Context, userID uint64) (int64, error)
	MarkAllRead(ctx context.Context, userID uint64) error
}

type notificationServiceImpl struct {
	notificationRepo mongo.NotificationRepo
}

func NewNotificationService(notificationRepo mongo.NotificationRepo) NotificationService {
	return &notificationServiceImpl{notificationRepo: notificationRepo}
}

func (s *notificationServiceImpl) List(ctx context.Context, userID uint64) ([]*dto.NotificationDTO, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID, notificationPageSize)
	if err != nil {
		log.Error("查询通知失败", "userId", userID, "error", err)
		return nil, UnExpectedError
	}
	result := make([]*dto.NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		var out dto.NotificationDTO
		if err := copier.Copy(&out, n); err != nil {
			log.Warn("通知转换失败", "error", err)
			continue
		}
		result = append(result, &out)
	}
	return result, nil
}

func (s *notificationServiceImpl) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		log.Error("查询未读数失败", "userId", userID, "error", err)
		return 0, UnExpectedError
	}
	return count, nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID uint64) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		log.Error("通知置已读失败", "userId", userID, "error", err)
		return UnExpectedError
	}
	return nil
}

package kafka

import (
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/mongo"
	"Parley/internal/pkg/redis"
	"context"
	log "log/slog"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// NotificationHandler 消费消息事件, 为离线成员写未读通知
type NotificationHandler struct {
	notificationRepo mongo.NotificationRepo
}

func NewNotificationHandler(notificationRepo mongo.NotificationRepo) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

func (s *NotificationHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("notification consumer setup")
	return nil
}

func (s *NotificationHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("notification consumer cleanup")
	return nil
}

func (s *NotificationHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-message-events consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-message-events process batch error", "err", err)
		return err
	}
	log.Info("topic-message-events consume claim end")
	return nil
}

func (s *NotificationHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event MessageEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// 坏消息不重试, 否则会卡死分区
		log.Error("无法解析的消息事件", "err", err)
		return nil
	}

	notifications := make([]*mongo.Notification, 0, len(event.MemberIDs))
	for _, memberID := range event.MemberIDs {
		if memberID == event.Sender {
			continue
		}
		online, err := redis.IsSetMember(ctx, consts.OnlineUsersKey, strconv.FormatUint(memberID, 10))
		if err != nil {
			return err
		}
		// 在线成员走 websocket 实时提醒, 只有离线成员落通知
		if online {
			continue
		}
		notifications = append(notifications, &mongo.Notification{
			UserID:         memberID,
			ConversationID: event.ConversationID,
			MessageID:      event.MessageID,
			Sender:         event.Sender,
			Preview:        event.Preview,
			CreatedAt:      event.CreatedAt,
		})
	}
	return s.notificationRepo.SaveNotifications(ctx, notifications)
}

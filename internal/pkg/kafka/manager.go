package kafka

import (
	"Parley/internal/api/config"
	"Parley/internal/pkg/mongo"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	messageEventsConsumer sarama.ConsumerGroup
	messageEventsHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(
	cfg *config.Config,
	notificationRepo mongo.NotificationRepo,
) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	messageEventsConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaMessageEvents.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}
	messageEventsHandler := NewNotificationHandler(notificationRepo)

	return &ConsumerManager{
		messageEventsConsumer: messageEventsConsumer,
		messageEventsHandler:  messageEventsHandler,
	}, nil
}

// Start 启动所有消费者, 阻塞到 ctx 取消
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		topic := cfg.KafkaMessageEvents.Topic
		log.Info("Message events consumer started", "topic", topic)
		for {
			if err := m.messageEventsConsumer.Consume(ctx, []string{topic}, m.messageEventsHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.messageEventsConsumer.Close(); err != nil {
		log.Error("Failed to close message events consumer", "err", err)
	}

	return nil
}

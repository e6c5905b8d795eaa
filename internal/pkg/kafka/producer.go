package kafka

import (
	"Parley/internal/api/config"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Producer 消息事件生产者
type Producer interface {
	PublishMessageEvent(event *MessageEvent) error
	Close() error
}

type saramaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer 构造同步生产者, 按会话 ID 作 key 保证同会话事件有序
func NewProducer(cfg *config.Config) (Producer, error) {
	p, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, errors.Wrap(err, "创建 kafka 生产者失败")
	}
	return &saramaProducer{
		producer: p,
		topic:    cfg.KafkaMessageEvents.Topic,
	}, nil
}

func (p *saramaProducer) PublishMessageEvent(event *MessageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "序列化消息事件失败")
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(event.ConversationID, 10)),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err = p.producer.SendMessage(msg); err != nil {
		return errors.Wrap(err, "发送消息事件失败")
	}
	return nil
}

func (p *saramaProducer) Close() error {
	return p.producer.Close()
}

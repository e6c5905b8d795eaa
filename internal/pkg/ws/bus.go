package ws

import (
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/redis"
	"context"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Bus 消息事件总线, 业务层只负责发布, 不关心连接分布在哪个实例
type Bus interface {
	PublishNewMessage(ctx context.Context, convType int8, payload *NewMessagePayload, memberIDs []uint64, preview string) error
	PublishUpdateMessage(ctx context.Context, payload *UpdateMessagePayload) error
	PublishDeleteMessage(ctx context.Context, payload *DeleteMessagePayload) error
}

type redisBus struct{}

func NewBus() Bus {
	return &redisBus{}
}

func (b *redisBus) publish(ctx context.Context, event *BusEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "序列化总线事件失败")
	}
	channel := consts.ConversationChannelKey + strconv.FormatUint(event.ConversationID, 10)
	if err = redis.Publish(ctx, channel, data); err != nil {
		return errors.Wrap(err, "发布总线事件失败")
	}
	return nil
}

func (b *redisBus) PublishNewMessage(ctx context.Context, convType int8, payload *NewMessagePayload, memberIDs []uint64, preview string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "序列化新消息载荷失败")
	}
	event := EventNewGroupMessage
	if convType == consts.ConvTypeDirect {
		event = EventNewDirectMessage
	}
	return b.publish(ctx, &BusEvent{
		Event:          event,
		ConversationID: payload.ConversationID,
		Sender:         payload.Sender,
		MemberIDs:      memberIDs,
		Preview:        preview,
		Payload:        data,
	})
}

func (b *redisBus) PublishUpdateMessage(ctx context.Context, payload *UpdateMessagePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "序列化编辑载荷失败")
	}
	return b.publish(ctx, &BusEvent{
		Event:          EventUpdateMessage,
		ConversationID: payload.ConversationID,
		Payload:        data,
	})
}

func (b *redisBus) PublishDeleteMessage(ctx context.Context, payload *DeleteMessagePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "序列化删除载荷失败")
	}
	return b.publish(ctx, &BusEvent{
		Event:          EventDeleteMessage,
		ConversationID: payload.ConversationID,
		Payload:        data,
	})
}

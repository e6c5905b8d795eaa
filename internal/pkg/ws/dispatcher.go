package ws

import (
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/redis"
	"context"
	log "log/slog"

	"github.com/goccy/go-json"
)

// Dispatcher 订阅共享总线, 把事件路由到本实例持有的连接
type Dispatcher struct {
	hub *Hub
}

func NewDispatcher(hub *Hub) *Dispatcher {
	return &Dispatcher{hub: hub}
}

// Run 阻塞消费总线事件, ctx 取消后退出
func (d *Dispatcher) Run(ctx context.Context) error {
	pubsub := redis.PSubscribe(ctx, consts.ConversationChannelKey+"*")
	defer func() {
		_ = pubsub.Close()
	}()
	ch := pubsub.Channel()
	log.Info("事件分发器已启动")
	for {
		select {
		case <-ctx.Done():
			log.Info("事件分发器退出")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			d.route(decodeBusEvent([]byte(msg.Payload)))
		}
	}
}

func decodeBusEvent(raw []byte) *BusEvent {
	var event BusEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Warn("无法解析的总线事件", "error", err)
		return nil
	}
	return &event
}

func (d *Dispatcher) route(event *BusEvent) {
	if event == nil {
		return
	}
	switch event.Event {
	case EventNewDirectMessage, EventNewGroupMessage:
		// 房间内全量推送
		d.hub.SendToRoom(event.ConversationID, EncodeFrame(event.Event, event.Payload), "")
		// 房间外的成员只收轻量提醒, 发送者自己除外
		notify := EncodeFrame(EventNewMessageNotification, &NotificationPayload{
			ConversationID: event.ConversationID,
			Sender:         event.Sender,
			Preview:        event.Preview,
		})
		for _, memberID := range event.MemberIDs {
			if memberID == event.Sender {
				continue
			}
			d.hub.SendToUserOutsideRoom(memberID, event.ConversationID, notify)
		}
	case EventUpdateMessage, EventDeleteMessage:
		// 编辑与删除只同步给正打开会话的连接
		d.hub.SendToRoom(event.ConversationID, EncodeFrame(event.Event, event.Payload), "")
	default:
		log.Debug("忽略未知总线事件", "event", event.Event)
	}
}

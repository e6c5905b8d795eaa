package service

import (
	"Parley/internal/model"
	"Parley/internal/pkg/kafka"
	"Parley/internal/pkg/mongo"
	"Parley/internal/pkg/userclient"
	"Parley/internal/pkg/ws"
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Conversation{}, &model.ConversationMember{}))
	return db
}

// fakeUserClient 用户资料服务替身
type fakeUserClient struct {
	profiles map[uint64]*userclient.Profile
	err      error
}

func newFakeUserClient(ids ...uint64) *fakeUserClient {
	profiles := make(map[uint64]*userclient.Profile, len(ids))
	for _, id := range ids {
		profiles[id] = &userclient.Profile{
			ID:          id,
			DisplayName: fmt.Sprintf("user-%d", id),
			AvatarURL:   fmt.Sprintf("https://cdn.example.com/%d.png", id),
		}
	}
	return &fakeUserClient{profiles: profiles}
}

func (f *fakeUserClient) GetUserProfile(_ context.Context, userID uint64) (*userclient.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, userclient.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeUserClient) GetUserProfiles(_ context.Context, userIDs []uint64) (map[uint64]*userclient.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uint64]*userclient.Profile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// fakeMessageRepo 内存消息仓库
type fakeMessageRepo struct {
	seq  int
	msgs map[string]*mongo.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{msgs: make(map[string]*mongo.Message)}
}

func (f *fakeMessageRepo) SaveMessage(_ context.Context, msg *mongo.Message) error {
	f.seq++
	msg.ID = fmt.Sprintf("fake%04d", f.seq)
	stored := *msg
	f.msgs[msg.ID] = &stored
	return nil
}

func (f *fakeMessageRepo) GetMessage(_ context.Context, messageID string) (*mongo.Message, error) {
	msg, ok := f.msgs[messageID]
	if !ok {
		return nil, mongo.ErrMessageNotFound
	}
	out := *msg
	return &out, nil
}

func (f *fakeMessageRepo) GetMessages(_ context.Context, messageIDs []string) ([]*mongo.Message, error) {
	out := make([]*mongo.Message, 0, len(messageIDs))
	for _, id := range messageIDs {
		if msg, ok := f.msgs[id]; ok {
			copied := *msg
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) GetAllByConversation(_ context.Context, convID uint64) ([]*mongo.Message, error) {
	out := make([]*mongo.Message, 0)
	for _, msg := range f.msgs {
		if msg.ConversationID == convID {
			copied := *msg
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMessageRepo) UpdateText(_ context.Context, messageID string, text string) (*mongo.Message, error) {
	msg, ok := f.msgs[messageID]
	if !ok {
		return nil, mongo.ErrMessageNotFound
	}
	msg.Text = &text
	msg.IsEdited = true
	out := *msg
	return &out, nil
}

func (f *fakeMessageRepo) MarkDeleted(_ context.Context, messageIDs []string) (int64, error) {
	var count int64
	for _, id := range messageIDs {
		if msg, ok := f.msgs[id]; ok && !msg.IsDeleted {
			msg.IsDeleted = true
			count++
		}
	}
	return count, nil
}

// fakeBus 记录发布过的实时事件
type fakeBus struct {
	newMessages []*ws.NewMessagePayload
	updates     []*ws.UpdateMessagePayload
	deletes     []*ws.DeleteMessagePayload
	lastEvent   string
}

func (f *fakeBus) PublishNewMessage(_ context.Context, convType int8, payload *ws.NewMessagePayload, _ []uint64, _ string) error {
	f.newMessages = append(f.newMessages, payload)
	if convType == 1 {
		f.lastEvent = ws.EventNewDirectMessage
	} else {
		f.lastEvent = ws.EventNewGroupMessage
	}
	return nil
}

func (f *fakeBus) PublishUpdateMessage(_ context.Context, payload *ws.UpdateMessagePayload) error {
	f.updates = append(f.updates, payload)
	f.lastEvent = ws.EventUpdateMessage
	return nil
}

func (f *fakeBus) PublishDeleteMessage(_ context.Context, payload *ws.DeleteMessagePayload) error {
	f.deletes = append(f.deletes, payload)
	f.lastEvent = ws.EventDeleteMessage
	return nil
}

// fakeProducer 记录投递到 Kafka 的消息事件
type fakeProducer struct {
	events []*kafka.MessageEvent
}

func (f *fakeProducer) PublishMessageEvent(event *kafka.MessageEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func ptr(s string) *string { return &s }

package service

import (
	"Parley/internal/api/dto"
	"Parley/internal/pkg/cache"
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/mongo"
	"Parley/internal/pkg/ws"
	"Parley/internal/repository"
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageFixture struct {
	*memberFixture
	svc      MessageService
	msgRepo  *fakeMessageRepo
	msgCache *cache.MessageCache
	bus      *fakeBus
	producer *fakeProducer
}

func newMessageFixture(t *testing.T, userIDs ...uint64) *messageFixture {
	t.Helper()
	db := newTestDB(t)
	base := newMemberFixture(t, db, userIDs...)

	msgRepo := newFakeMessageRepo()
	bus := &fakeBus{}
	producer := &fakeProducer{}
	msgCache := cache.NewMessageCache(cache.NewMemStore())

	convRepo := repository.NewConversationRepo(db)
	memberRepo := repository.NewMemberRepo(db)
	svc := NewMessageService(convRepo, memberRepo, msgRepo, msgCache, base.convSvc, bus, producer)

	return &messageFixture{
		memberFixture: base,
		svc:           svc,
		msgRepo:       msgRepo,
		msgCache:      msgCache,
		bus:           bus,
		producer:      producer,
	}
}

func TestSendTextMessage(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t, 1, 2)
	convID := createDirect(t, f.memberFixture, 1, 2)

	msg, err := f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convID,
		Type:           consts.MsgTypeText,
		Text:           ptr("hello"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, uint64(1), msg.Sender)

	// 会话快照被更新
	view, err := f.convSvc.GetConversation(ctx, convID, 2)
	require.NoError(t, err)
	assert.Equal(t, "hello", view.LastMessage)

	// 单聊触发 new_direct_message, 并投递 Kafka 消息事件
	assert.Equal(t, ws.EventNewDirectMessage, f.bus.lastEvent)
	require.Len(t, f.producer.events, 1)
	assert.Equal(t, "hello", f.producer.events[0].Preview)
	assert.ElementsMatch(t, []uint64{1, 2}, f.producer.events[0].MemberIDs)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t, 1, 2, 3)
	convID := createDirect(t, f.memberFixture, 1, 2)

	_, err := f.svc.Create(ctx, 3, &dto.SendMessageReq{
		ConversationID: convID, Type: consts.MsgTypeText, Text: ptr("hi"),
	})
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: 9999, Type: consts.MsgTypeText, Text: ptr("hi"),
	})
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convID, Type: "Sticker", Text: ptr("hi"),
	})
	assert.ErrorIs(t, err, ErrInvalidMsgType)

	_, err = f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convID, Type: consts.MsgTypeText,
	})
	assert.ErrorIs(t, err, ErrTextRequired)

	_, err = f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convID, Type: consts.MsgTypeImage,
	})
	assert.ErrorIs(t, err, ErrMediaRequired)
}

func TestSendMediaMessagePreview(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t, 1, 2)
	convID := createDirect(t, f.memberFixture, 1, 2)

	_, err := f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convID,
		Type:           consts.MsgTypeImage,
		MediaURL:       ptr("https://cdn.example.com/pic.jpg"),
	})
	require.NoError(t, err)

	view, err := f.convSvc.GetConversation(ctx, convID, 2)
	require.NoError(t, err)
	assert.Equal(t, "[Image]", view.LastMessage)
}

func TestEditMessage(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t, 1, 2)
	convID := createDirect(t, f.memberFixture, 1, 2)

	msg, err := f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convID, Type: consts.MsgTypeText, Text: ptr("typo"),
	})
	require.NoError(t, err)

	// 只有发送者本人能编辑
	_, err = f.svc.Edit(ctx, 2, msg.ID, "fixed")
	assert.ErrorIs(t, err, ErrNotSender)

	_, err = f.svc.Edit(ctx, 1, "aaaaaaaaaaaaaaaaaaaaaaaa", "fixed")
	assert.ErrorIs(t, err, ErrMessageNotFound)

	edited, err := f.svc.Edit(ctx, 1, msg.ID, "fixed")
	require.NoError(t, err)
	require.NotNil(t, edited.Text)
	assert.Equal(t, "fixed", *edited.Text)
	assert.True(t, edited.IsEdited)
	assert.Equal(t, ws.EventUpdateMessage, f.bus.lastEvent)

	// 缓存窗口同步到新文本
	all, err := f.svc.GetAll(ctx, 1, convID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "fixed", *all[0].Text)

	// 缓存失效后从持久层重建, 编辑结果一样可见
	f.msgCache.Invalidate(ctx, convID)
	all, err = f.svc.GetAll(ctx, 1, convID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "fixed", *all[0].Text)
	assert.True(t, all[0].IsEdited)
}

func TestEditNonTextMessageRejected(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t, 1, 2)
	convID := createDirect(t, f.memberFixture, 1, 2)

	msg, err := f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convID,
		Type:           consts.MsgTypeFile,
		MediaURL:       ptr("https://cdn.example.com/doc.pdf"),
	})
	require.NoError(t, err)

	_, err = f.svc.Edit(ctx, 1, msg.ID, "nope")
	assert.ErrorIs(t, err, ErrEditNonText)
}

func TestDeleteMessagesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t, 1, 2)
	convID := createDirect(t, f.memberFixture, 1, 2)

	mine, err := f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convID, Type: consts.MsgTypeText, Text: ptr("mine"),
	})
	require.NoError(t, err)
	theirs, err := f.svc.Create(ctx, 2, &dto.SendMessageReq{
		ConversationID: convID, Type: consts.MsgTypeText, Text: ptr("theirs"),
	})
	require.NoError(t, err)

	// 混入他人消息, 整批拒绝且一条都不删
	_, err = f.svc.Delete(ctx, 1, []string{mine.ID, theirs.ID})
	assert.ErrorIs(t, err, ErrDeleteOwnership)

	all, err := f.svc.GetAll(ctx, 1, convID)
	require.NoError(t, err)
	for _, m := range all {
		assert.False(t, m.IsDeleted)
	}

	// 混入不存在的 ID 同样拒绝
	_, err = f.svc.Delete(ctx, 1, []string{mine.ID, "missing"})
	assert.ErrorIs(t, err, ErrDeleteOwnership)

	result, err := f.svc.Delete(ctx, 1, []string{mine.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.DeletedCount)
	assert.Equal(t, ws.EventDeleteMessage, f.bus.lastEvent)

	all, err = f.svc.GetAll(ctx, 1, convID)
	require.NoError(t, err)
	for _, m := range all {
		if m.ID == mine.ID {
			assert.True(t, m.IsDeleted)
		} else {
			assert.False(t, m.IsDeleted)
		}
	}
}

func TestDeleteAcrossConversationsRejected(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t, 1, 2, 3)
	convA := createDirect(t, f.memberFixture, 1, 2)
	convB := createDirect(t, f.memberFixture, 1, 3)

	a, err := f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convA, Type: consts.MsgTypeText, Text: ptr("a"),
	})
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convB, Type: consts.MsgTypeText, Text: ptr("b"),
	})
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, 1, []string{a.ID, b.ID})
	assert.ErrorIs(t, err, ErrDeleteCrossConv)
}

func TestGetAllRequiresConversation(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t, 1, 2)

	_, err := f.svc.GetAll(ctx, 1, 9999)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestGetAllRequiresMembership(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t, 1, 2, 3)
	convID := createDirect(t, f.memberFixture, 1, 2)

	_, err := f.svc.Create(ctx, 1, &dto.SendMessageReq{
		ConversationID: convID, Type: consts.MsgTypeText, Text: ptr("private"),
	})
	require.NoError(t, err)

	// 非成员读不到历史
	_, err = f.svc.GetAll(ctx, 3, convID)
	assert.ErrorIs(t, err, ErrNotMember)

	all, err := f.svc.GetAll(ctx, 2, convID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPreviewTruncatesOnRuneBoundary(t *testing.T) {
	long := "a" + strings.Repeat("好", 100)
	preview := previewOf(&mongo.Message{Type: consts.MsgTypeText, Text: &long})

	assert.True(t, utf8.ValidString(preview))
	assert.LessOrEqual(t, len(preview), consts.PreviewMaxBytes)
	// 截断点落在第 85 个汉字中间, 整个字符被丢弃
	assert.Equal(t, "a"+strings.Repeat("好", 84), preview)
}

package cache

import (
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/mongo"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeMessages(n int) []*mongo.Message {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msgs := make([]*mongo.Message, 0, n)
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("message %d", i)
		msgs = append(msgs, &mongo.Message{
			ID:             fmt.Sprintf("m%03d", i),
			ConversationID: 1,
			Sender:         uint64(i%2 + 1),
			Type:           consts.MsgTypeText,
			Text:           &text,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
	}
	return msgs
}

func TestAppendAndTrimKeepsWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	c := NewMessageCache(store)

	msgs := makeMessages(consts.MessageWindowSize + 5)
	for _, m := range msgs {
		c.AppendAndTrim(ctx, 1, m)
	}

	raw, err := store.LRange(ctx, windowKey(1))
	require.NoError(t, err)
	assert.Len(t, raw, consts.MessageWindowSize)

	window, err := decodeWindow(raw)
	require.NoError(t, err)
	// 窗口保留最新 50 条, 升序返回
	assert.Equal(t, "m005", window[0].ID)
	assert.Equal(t, "m054", window[len(window)-1].ID)
}

func TestReadThroughMissLoadsFullHistory(t *testing.T) {
	ctx := context.Background()
	c := NewMessageCache(NewMemStore())

	history := makeMessages(consts.MessageWindowSize + 10)
	loaderCalls := 0
	loader := func(ctx context.Context) ([]*mongo.Message, error) {
		loaderCalls++
		return history, nil
	}

	// 未命中: 返回全量历史并回填窗口
	got, err := c.ReadThrough(ctx, 1, loader)
	require.NoError(t, err)
	assert.Len(t, got, len(history))
	assert.Equal(t, 1, loaderCalls)

	// 命中: 只返回窗口内最新 50 条, 不再触发 loader
	got, err = c.ReadThrough(ctx, 1, loader)
	require.NoError(t, err)
	assert.Len(t, got, consts.MessageWindowSize)
	assert.Equal(t, 1, loaderCalls)
	assert.Equal(t, "m010", got[0].ID)
	assert.Equal(t, "m059", got[len(got)-1].ID)
}

func TestReadThroughSkipsBackfillAfterConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	c := NewMessageCache(store)

	history := makeMessages(3)
	latest := "late arrival"
	newest := &mongo.Message{
		ID:             "m999",
		ConversationID: 1,
		Sender:         2,
		Type:           consts.MsgTypeText,
		Text:           &latest,
		CreatedAt:      time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC),
	}

	// loader 执行期间有新消息落进缓存, 回填必须让路,
	// 否则旧历史会堆在新消息头上
	got, err := c.ReadThrough(ctx, 1, func(ctx context.Context) ([]*mongo.Message, error) {
		c.AppendAndTrim(ctx, 1, newest)
		return history, nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	raw, err := store.LRange(ctx, windowKey(1))
	require.NoError(t, err)
	require.Len(t, raw, 1)
	window, err := decodeWindow(raw)
	require.NoError(t, err)
	assert.Equal(t, "m999", window[0].ID)

	// 后续命中读到的窗口只有那条新消息, 顺序没有被破坏
	got, err = c.ReadThrough(ctx, 1, func(ctx context.Context) ([]*mongo.Message, error) {
		t.Fatal("loader should not run on a warm window")
		return nil, nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m999", got[0].ID)
}

func TestReadThroughCorruptWindowRebuilds(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	c := NewMessageCache(store)

	require.NoError(t, store.LPush(ctx, windowKey(1), "not json"))

	history := makeMessages(3)
	got, err := c.ReadThrough(ctx, 1, func(ctx context.Context) ([]*mongo.Message, error) {
		return history, nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// 损坏窗口被丢弃并用持久层数据重建
	raw, err := store.LRange(ctx, windowKey(1))
	require.NoError(t, err)
	require.Len(t, raw, 3)
	window, err := decodeWindow(raw)
	require.NoError(t, err)
	assert.Equal(t, "m000", window[0].ID)
}

func TestApplyMutationRewritesMatching(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	c := NewMessageCache(store)

	for _, m := range makeMessages(5) {
		c.AppendAndTrim(ctx, 1, m)
	}

	edited := "edited"
	c.ApplyMutation(ctx, 1, []string{"m002"}, func(m *mongo.Message) {
		m.Text = &edited
		m.IsEdited = true
	})

	raw, err := store.LRange(ctx, windowKey(1))
	require.NoError(t, err)
	window, err := decodeWindow(raw)
	require.NoError(t, err)
	require.Len(t, window, 5)

	for _, m := range window {
		if m.ID == "m002" {
			require.NotNil(t, m.Text)
			assert.Equal(t, "edited", *m.Text)
			assert.True(t, m.IsEdited)
		} else {
			assert.False(t, m.IsEdited)
		}
	}
	// 重建不打乱顺序
	assert.Equal(t, "m000", window[0].ID)
	assert.Equal(t, "m004", window[4].ID)
}

func TestApplyMutationNoWindowIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	c := NewMessageCache(store)

	c.ApplyMutation(ctx, 42, []string{"m000"}, func(m *mongo.Message) {
		m.IsDeleted = true
	})

	raw, err := store.LRange(ctx, windowKey(42))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestInvalidateDropsWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	c := NewMessageCache(store)

	for _, m := range makeMessages(3) {
		c.AppendAndTrim(ctx, 1, m)
	}
	c.Invalidate(ctx, 1)

	raw, err := store.LRange(ctx, windowKey(1))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

package ws

import (
	redispkg "Parley/internal/pkg/redis"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// 指向不可达地址: 测试里漏网的 Redis 访问会快速失败而不是挂住
	redispkg.Rdb = goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	os.Exit(m.Run())
}

type fakeMembership struct {
	members map[uint64]map[uint64]bool
}

func (f *fakeMembership) CheckIsMember(_ context.Context, convID, userID uint64) (bool, error) {
	return f.members[convID][userID], nil
}

// fakePresenceStore 进程内共享存储, 多个 Presence 实例挂同一个
// 即可模拟多实例部署
type fakePresenceStore struct {
	mu     sync.Mutex
	conns  map[string]int64
	online map[string]bool
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{
		conns:  make(map[string]int64),
		online: make(map[string]bool),
	}
}

func (f *fakePresenceStore) IncrConn(_ context.Context, userID string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conns[userID] += delta
	return f.conns[userID], nil
}

func (f *fakePresenceStore) ClearConn(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns, userID)
	return nil
}

func (f *fakePresenceStore) AddOnline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = true
	return nil
}

func (f *fakePresenceStore) RemoveOnline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.online, userID)
	return nil
}

func (f *fakePresenceStore) OnlineUsers(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]string, 0, len(f.online))
	for id := range f.online {
		users = append(users, id)
	}
	return users, nil
}

func (f *fakePresenceStore) isOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func newTestHub(members map[uint64]map[uint64]bool) *Hub {
	return NewHub(NewPresence(newFakePresenceStore()), &fakeMembership{members: members})
}

func recvFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	select {
	case raw := <-c.send:
		var frame Frame
		require.NoError(t, json.Unmarshal(raw, &frame))
		return &frame
	case <-time.After(time.Second):
		t.Fatal("expected a frame, got none")
		return nil
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected frame: %s", raw)
	default:
	}
}

func TestJoinRoomRequiresMembership(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(map[uint64]map[uint64]bool{10: {1: true}})

	member := NewClient("c1", 1, hub, nil)
	outsider := NewClient("c2", 2, hub, nil)

	require.NoError(t, hub.JoinRoom(ctx, member, 10))
	assert.ErrorIs(t, hub.JoinRoom(ctx, outsider, 10), ErrNotRoomMember)
}

func TestSendToRoom(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(map[uint64]map[uint64]bool{10: {1: true, 2: true}})

	a := NewClient("c1", 1, hub, nil)
	b := NewClient("c2", 2, hub, nil)
	require.NoError(t, hub.JoinRoom(ctx, a, 10))
	require.NoError(t, hub.JoinRoom(ctx, b, 10))

	hub.SendToRoom(10, EncodeFrame(EventNewDirectMessage, map[string]any{"x": 1}), "")
	assert.Equal(t, EventNewDirectMessage, recvFrame(t, a).Event)
	assert.Equal(t, EventNewDirectMessage, recvFrame(t, b).Event)

	// exceptConn 的连接不收帧
	hub.SendToRoom(10, EncodeFrame(EventTypingStarted, map[string]any{}), "c1")
	assertNoFrame(t, a)
	assert.Equal(t, EventTypingStarted, recvFrame(t, b).Event)
}

func TestSendToUserOutsideRoom(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(map[uint64]map[uint64]bool{10: {1: true}})

	// 同一用户两端: 一端在房间里, 一端没打开会话
	inRoom := NewClient("c1", 1, hub, nil)
	elsewhere := NewClient("c2", 1, hub, nil)
	hub.Register(ctx, inRoom)
	hub.Register(ctx, elsewhere)
	// 注册时广播的在线列表帧先排掉
	for _, c := range []*Client{inRoom, elsewhere} {
		for len(c.send) > 0 {
			<-c.send
		}
	}
	require.NoError(t, hub.JoinRoom(ctx, inRoom, 10))

	hub.SendToUserOutsideRoom(1, 10, EncodeFrame(EventNewMessageNotification, &NotificationPayload{
		ConversationID: 10,
		Sender:         2,
		Preview:        "hi",
	}))
	assertNoFrame(t, inRoom)
	assert.Equal(t, EventNewMessageNotification, recvFrame(t, elsewhere).Event)
}

func TestUnregisterLeavesRooms(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(map[uint64]map[uint64]bool{10: {1: true, 2: true}})

	a := NewClient("c1", 1, hub, nil)
	b := NewClient("c2", 2, hub, nil)
	hub.Register(ctx, a)
	hub.Register(ctx, b)
	require.NoError(t, hub.JoinRoom(ctx, a, 10))
	require.NoError(t, hub.JoinRoom(ctx, b, 10))

	hub.Unregister(ctx, a)
	for len(b.send) > 0 {
		<-b.send
	}

	hub.SendToRoom(10, EncodeFrame(EventDeleteMessage, map[string]any{}), "")
	assertNoFrame(t, a)
	assert.Equal(t, EventDeleteMessage, recvFrame(t, b).Event)
}

func TestPresenceRefCounting(t *testing.T) {
	ctx := context.Background()
	store := newFakePresenceStore()
	p := NewPresence(store)

	first, err := p.Connect(ctx, 7)
	require.NoError(t, err)
	assert.True(t, first)
	second, err := p.Connect(ctx, 7)
	require.NoError(t, err)
	assert.False(t, second)
	assert.Equal(t, 2, p.LocalCount(7))
	assert.True(t, store.isOnline("7"))

	// 先断开的一端不会把用户整体下线
	last, err := p.Disconnect(ctx, 7)
	require.NoError(t, err)
	assert.False(t, last)
	assert.Equal(t, 1, p.LocalCount(7))
	assert.True(t, store.isOnline("7"))

	last, err = p.Disconnect(ctx, 7)
	require.NoError(t, err)
	assert.True(t, last)
	assert.Zero(t, p.LocalCount(7))
	assert.False(t, store.isOnline("7"))
}

func TestPresenceAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := newFakePresenceStore()
	// 两个实例共享同一份在线状态
	a := NewPresence(store)
	b := NewPresence(store)

	first, err := a.Connect(ctx, 7)
	require.NoError(t, err)
	assert.True(t, first)
	first, err = b.Connect(ctx, 7)
	require.NoError(t, err)
	assert.False(t, first)

	// 实例 a 上的最后一个连接断开, 用户在实例 b 上仍在线
	last, err := a.Disconnect(ctx, 7)
	require.NoError(t, err)
	assert.False(t, last)
	assert.True(t, store.isOnline("7"))

	last, err = b.Disconnect(ctx, 7)
	require.NoError(t, err)
	assert.True(t, last)
	assert.False(t, store.isOnline("7"))
}

func TestDispatcherRouting(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(map[uint64]map[uint64]bool{10: {1: true, 2: true, 3: true}})
	d := NewDispatcher(hub)

	sender := NewClient("c1", 1, hub, nil)
	reader := NewClient("c2", 2, hub, nil)
	idle := NewClient("c3", 3, hub, nil)
	hub.Register(ctx, sender)
	hub.Register(ctx, reader)
	hub.Register(ctx, idle)
	require.NoError(t, hub.JoinRoom(ctx, sender, 10))
	require.NoError(t, hub.JoinRoom(ctx, reader, 10))
	for _, c := range []*Client{sender, reader, idle} {
		for len(c.send) > 0 {
			<-c.send
		}
	}

	payload, err := json.Marshal(&NewMessagePayload{ConversationID: 10, MessageID: "m1", Sender: 1})
	require.NoError(t, err)
	d.route(&BusEvent{
		Event:          EventNewGroupMessage,
		ConversationID: 10,
		Sender:         1,
		MemberIDs:      []uint64{1, 2, 3},
		Preview:        "hello",
		Payload:        payload,
	})

	// 房间内 (含发送者) 收全量消息
	assert.Equal(t, EventNewGroupMessage, recvFrame(t, sender).Event)
	assert.Equal(t, EventNewGroupMessage, recvFrame(t, reader).Event)

	// 在线但不在房间的成员收轻量提醒
	frame := recvFrame(t, idle)
	assert.Equal(t, EventNewMessageNotification, frame.Event)
	var notify NotificationPayload
	require.NoError(t, json.Unmarshal(frame.Data, &notify))
	assert.Equal(t, "hello", notify.Preview)
	assert.Equal(t, uint64(1), notify.Sender)

	// 编辑事件只进房间
	update, err := json.Marshal(&UpdateMessagePayload{ConversationID: 10, MessageID: "m1"})
	require.NoError(t, err)
	d.route(&BusEvent{Event: EventUpdateMessage, ConversationID: 10, Payload: update})
	assert.Equal(t, EventUpdateMessage, recvFrame(t, sender).Event)
	assert.Equal(t, EventUpdateMessage, recvFrame(t, reader).Event)
	assertNoFrame(t, idle)
}

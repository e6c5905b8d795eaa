package cache

import (
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/mongo"
	"context"
	log "log/slog"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
)

// MessageCache 会话级最近消息窗口缓存
//
// 缓存只是读加速, 永远不是事实来源: 任何不一致以持久层为准。
// 列表最新消息在头部, 窗口上限 50 条, TTL 300s。
// 编辑/删除走读-改-写重建, 同一会话的写操作通过 per-key 锁串行化,
// 防止重建过程吞掉并发追加的新消息。
type MessageCache struct {
	store Store

	mu       sync.Mutex
	keyLocks map[uint64]*sync.Mutex
}

func NewMessageCache(store Store) *MessageCache {
	return &MessageCache{
		store:    store,
		keyLocks: make(map[uint64]*sync.Mutex),
	}
}

func windowKey(convID uint64) string {
	return consts.MessageWindowKey + strconv.FormatUint(convID, 10)
}

// convLock 返回会话级写锁 (单进程内串行化该会话的缓存写入)
func (c *MessageCache) convLock(convID uint64) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.keyLocks[convID]
	if !ok {
		lock = &sync.Mutex{}
		c.keyLocks[convID] = lock
	}
	return lock
}

// AppendAndTrim 新消息入缓存: 推到头部并截断到窗口大小
// 缓存失败只记日志, 不阻塞消息主链路。
func (c *MessageCache) AppendAndTrim(ctx context.Context, convID uint64, msg *mongo.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.ErrorContext(ctx, "消息缓存序列化失败", "convID", convID, "err", err)
		return
	}

	lock := c.convLock(convID)
	lock.Lock()
	defer lock.Unlock()

	key := windowKey(convID)
	if err := c.store.LPush(ctx, key, string(data)); err != nil {
		log.WarnContext(ctx, "消息缓存写入失败, 已降级", "convID", convID, "err", err)
		return
	}
	_ = c.store.LTrim(ctx, key, 0, consts.MessageWindowSize-1)
	_ = c.store.Expire(ctx, key, consts.CacheTTL)
}

// ReadThrough 读穿缓存
//
// 命中: 刷新 TTL 并返回缓存窗口 (至多 50 条, 这是对外可见的已知限制,
// 需要完整历史的调用方必须绕过缓存)。
// 未命中: 通过 loader 从持久层加载全量历史, 回填最近 50 条, 返回全量。
// 缓存底座异常时直接降级为持久层读取。
func (c *MessageCache) ReadThrough(ctx context.Context, convID uint64,
	loader func(ctx context.Context) ([]*mongo.Message, error)) ([]*mongo.Message, error) {

	key := windowKey(convID)

	raw, err := c.store.LRange(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "消息缓存读取失败, 降级为持久层", "convID", convID, "err", err)
		return loader(ctx)
	}

	if len(raw) > 0 {
		_ = c.store.Expire(ctx, key, consts.CacheTTL)
		messages, err := decodeWindow(raw)
		if err != nil {
			// 缓存数据损坏, 丢弃后走持久层重建
			log.ErrorContext(ctx, "消息缓存数据损坏, 丢弃重建", "convID", convID, "err", err)
			_ = c.store.Del(ctx, key)
		} else {
			return messages, nil
		}
	}

	history, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	c.populate(ctx, convID, history)
	return history, nil
}

// populate 用升序全量历史回填最近窗口
func (c *MessageCache) populate(ctx context.Context, convID uint64, ascending []*mongo.Message) {
	if len(ascending) == 0 {
		return
	}

	start := 0
	if len(ascending) > consts.MessageWindowSize {
		start = len(ascending) - consts.MessageWindowSize
	}
	window := ascending[start:]

	// 列表头部放最新消息, 因此按升序逐条 LPUSH
	values := make([]string, 0, len(window))
	for _, m := range window {
		data, err := json.Marshal(m)
		if err != nil {
			log.ErrorContext(ctx, "消息缓存序列化失败", "convID", convID, "err", err)
			return
		}
		values = append(values, string(data))
	}

	lock := c.convLock(convID)
	lock.Lock()
	defer lock.Unlock()

	key := windowKey(convID)
	// 加载持久层期间可能有并发追加已经落进缓存, 此时放弃回填,
	// 否则旧历史会压在新消息头部, 打乱窗口顺序
	existing, err := c.store.LRange(ctx, key)
	if err != nil || len(existing) > 0 {
		return
	}
	if err := c.store.LPush(ctx, key, values...); err != nil {
		log.WarnContext(ctx, "消息缓存回填失败", "convID", convID, "err", err)
		return
	}
	_ = c.store.LTrim(ctx, key, 0, consts.MessageWindowSize-1)
	_ = c.store.Expire(ctx, key, consts.CacheTTL)
}

// ApplyMutation 对窗口内匹配 ID 的消息应用变更后整体重建
//
// 缓存不存在时为 no-op (下次读穿会从持久层重建)。
// 重建保持原有顺序与剩余 TTL; 与 AppendAndTrim 共用会话级写锁,
// 避免重建覆盖并发追加。
func (c *MessageCache) ApplyMutation(ctx context.Context, convID uint64,
	messageIDs []string, mutator func(*mongo.Message)) {

	idSet := make(map[string]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		idSet[id] = struct{}{}
	}

	lock := c.convLock(convID)
	lock.Lock()
	defer lock.Unlock()

	key := windowKey(convID)
	raw, err := c.store.LRange(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "消息缓存读取失败, 放弃更新", "convID", convID, "err", err)
		return
	}
	if len(raw) == 0 {
		return
	}

	values := make([]string, 0, len(raw))
	for _, item := range raw {
		var msg mongo.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			// 损坏条目直接丢弃整个窗口
			log.ErrorContext(ctx, "消息缓存数据损坏, 丢弃窗口", "convID", convID, "err", err)
			_ = c.store.Del(ctx, key)
			return
		}
		if _, ok := idSet[msg.ID]; ok {
			mutator(&msg)
		}
		data, err := json.Marshal(&msg)
		if err != nil {
			log.ErrorContext(ctx, "消息缓存序列化失败", "convID", convID, "err", err)
			return
		}
		values = append(values, string(data))
	}

	ttl, err := c.store.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		ttl = consts.CacheTTL
	}

	if err := c.store.RewriteList(ctx, key, values, consts.MessageWindowSize, ttl); err != nil {
		// 重建失败则清掉缓存, 宁可缓存缺失也不能留下旧值
		log.WarnContext(ctx, "消息缓存重建失败, 清空窗口", "convID", convID, "err", err)
		_ = c.store.Del(ctx, key)
	}
}

// Invalidate 丢弃指定会话的缓存窗口
func (c *MessageCache) Invalidate(ctx context.Context, convID uint64) {
	lock := c.convLock(convID)
	lock.Lock()
	defer lock.Unlock()
	_ = c.store.Del(ctx, windowKey(convID))
}

// decodeWindow 将缓存条目 (最新在前) 还原为升序消息列表
func decodeWindow(raw []string) ([]*mongo.Message, error) {
	messages := make([]*mongo.Message, len(raw))
	for i, item := range raw {
		var msg mongo.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, err
		}
		// 反转: 头部是最新消息, 对外统一返回按时间升序
		messages[len(raw)-1-i] = &msg
	}
	return messages, nil
}

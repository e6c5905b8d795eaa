package cache

import (
	"Parley/internal/pkg/consts"
	"context"
	log "log/slog"
	"strconv"

	"github.com/goccy/go-json"
)

// ConversationListCache 用户会话列表视图缓存 (String, JSON, TTL 300s)
type ConversationListCache struct {
	store Store
}

func NewConversationListCache(store Store) *ConversationListCache {
	return &ConversationListCache{store: store}
}

func listKey(userID uint64) string {
	return consts.ConversationListKey + strconv.FormatUint(userID, 10)
}

// Get 命中返回 true 并反序列化到 out
func (c *ConversationListCache) Get(ctx context.Context, userID uint64, out interface{}) bool {
	value, ok, err := c.store.GetString(ctx, listKey(userID))
	if err != nil {
		log.WarnContext(ctx, "会话列表缓存读取失败", "userID", userID, "err", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		log.ErrorContext(ctx, "会话列表缓存数据损坏", "userID", userID, "err", err)
		_ = c.store.Del(ctx, listKey(userID))
		return false
	}
	return true
}

// Set 写入列表视图
func (c *ConversationListCache) Set(ctx context.Context, userID uint64, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		log.ErrorContext(ctx, "会话列表缓存序列化失败", "userID", userID, "err", err)
		return
	}
	if err := c.store.SetString(ctx, listKey(userID), string(data), consts.CacheTTL); err != nil {
		log.WarnContext(ctx, "会话列表缓存写入失败", "userID", userID, "err", err)
	}
}

// Invalidate 会话发生变化时失效相关用户的列表视图
func (c *ConversationListCache) Invalidate(ctx context.Context, userIDs ...uint64) {
	for _, userID := range userIDs {
		if err := c.store.Del(ctx, listKey(userID)); err != nil {
			log.WarnContext(ctx, "会话列表缓存失效失败", "userID", userID, "err", err)
		}
	}
}

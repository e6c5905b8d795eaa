package ws

import (
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/redis"
	"context"
	log "log/slog"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// PresenceStore 在线状态的共享存储
// 连接计数与在线集合必须跨实例共享, 否则一个实例上的最后断开
// 会把仍在其他实例上在线的用户整体下线。
type PresenceStore interface {
	// IncrConn 调整用户的全局连接计数, 返回调整后的值
	IncrConn(ctx context.Context, userID string, delta int64) (int64, error)
	// ClearConn 清除用户的连接计数记录
	ClearConn(ctx context.Context, userID string) error
	AddOnline(ctx context.Context, userID string) error
	RemoveOnline(ctx context.Context, userID string) error
	OnlineUsers(ctx context.Context) ([]string, error)
}

type redisPresenceStore struct{}

// NewRedisPresenceStore 基于共享 Redis 的在线状态存储
func NewRedisPresenceStore() PresenceStore {
	return &redisPresenceStore{}
}

func (s *redisPresenceStore) IncrConn(ctx context.Context, userID string, delta int64) (int64, error) {
	return redis.IncrHashField(ctx, consts.OnlineConnsKey, userID, delta)
}

func (s *redisPresenceStore) ClearConn(ctx context.Context, userID string) error {
	return redis.DeleteHashField(ctx, consts.OnlineConnsKey, userID)
}

func (s *redisPresenceStore) AddOnline(ctx context.Context, userID string) error {
	return redis.AddToSet(ctx, consts.OnlineUsersKey, userID)
}

func (s *redisPresenceStore) RemoveOnline(ctx context.Context, userID string) error {
	return redis.RemoveFromSet(ctx, consts.OnlineUsersKey, userID)
}

func (s *redisPresenceStore) OnlineUsers(ctx context.Context) ([]string, error) {
	return redis.GetSet(ctx, consts.OnlineUsersKey)
}

// Presence 在线状态登记表
// 同一用户多个连接 (多端、多实例) 共享一条在线记录, 全局计数归零
// 才真正下线。本地计数只用于观测与对账, 上下线判定以共享计数为准。
type Presence struct {
	store PresenceStore

	mu     sync.Mutex
	counts map[uint64]int
	// pending 共享计数回退失败的次数, 由兜底任务重试
	pending map[uint64]int64
}

func NewPresence(store PresenceStore) *Presence {
	return &Presence{
		store:   store,
		counts:  make(map[uint64]int),
		pending: make(map[uint64]int64),
	}
}

// Connect 登记一个连接, 返回该用户是否由离线转为在线
func (p *Presence) Connect(ctx context.Context, userID uint64) (bool, error) {
	p.mu.Lock()
	p.counts[userID]++
	localFirst := p.counts[userID] == 1
	p.mu.Unlock()

	field := strconv.FormatUint(userID, 10)
	total, err := p.store.IncrConn(ctx, field, 1)
	if err != nil {
		// 共享存储不可用时退化为单实例判定
		return localFirst, errors.Wrap(err, "登记在线连接失败")
	}
	if total != 1 {
		return false, nil
	}
	if err := p.store.AddOnline(ctx, field); err != nil {
		return true, errors.Wrap(err, "登记在线用户失败")
	}
	return true, nil
}

// Disconnect 注销一个连接, 返回该用户是否由在线转为离线
// 全局计数归零才从在线集合移除: 用户在其他实例上仍有连接时,
// 本实例的最后一个断开不触发下线。
func (p *Presence) Disconnect(ctx context.Context, userID uint64) (bool, error) {
	p.mu.Lock()
	p.counts[userID]--
	localLast := p.counts[userID] <= 0
	if localLast {
		delete(p.counts, userID)
	}
	p.mu.Unlock()

	field := strconv.FormatUint(userID, 10)
	total, err := p.store.IncrConn(ctx, field, -1)
	if err != nil {
		p.mu.Lock()
		p.pending[userID]++
		p.mu.Unlock()
		return localLast, errors.Wrap(err, "注销在线连接失败")
	}
	if total > 0 {
		return false, nil
	}
	p.markOffline(ctx, userID, field)
	return true, nil
}

// markOffline 计数归零 (或漂移为负) 时清掉计数记录与在线标记
func (p *Presence) markOffline(ctx context.Context, userID uint64, field string) {
	if err := p.store.ClearConn(ctx, field); err != nil {
		log.Warn("清除在线计数失败", "userId", userID, "error", err)
	}
	if err := p.store.RemoveOnline(ctx, field); err != nil {
		log.Warn("注销在线用户失败", "userId", userID, "error", err)
	}
}

// OnlineUsers 当前在线用户列表 (跨实例)
func (p *Presence) OnlineUsers(ctx context.Context) ([]string, error) {
	users, err := p.store.OnlineUsers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "获取在线用户失败")
	}
	return users, nil
}

// LocalCount 本实例登记的某用户连接数
func (p *Presence) LocalCount(userID uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[userID]
}

// Reconcile 兜底对账: 重试注销时没扣成功的共享计数,
// 扣到零的用户补做下线清理。
func (p *Presence) Reconcile(ctx context.Context) {
	p.mu.Lock()
	retry := make(map[uint64]int64, len(p.pending))
	for id, n := range p.pending {
		retry[id] = n
	}
	p.mu.Unlock()

	for id, n := range retry {
		field := strconv.FormatUint(id, 10)
		total, err := p.store.IncrConn(ctx, field, -n)
		if err != nil {
			log.Warn("清理残留在线记录失败", "userId", id, "error", err)
			continue
		}
		p.mu.Lock()
		p.pending[id] -= n
		if p.pending[id] <= 0 {
			delete(p.pending, id)
		}
		p.mu.Unlock()
		if total <= 0 {
			p.markOffline(ctx, id, field)
		}
	}
}

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store 缓存底座抽象
// 生产实现基于共享 Redis, 测试可替换为内存实现。
type Store interface {
	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string) ([]string, error)
	// RewriteList 原子地用 values (按给定顺序) 重建整个列表
	RewriteList(ctx context.Context, key string, values []string, maxLen int64, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, bool, error)
}

type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore 基于共享 Redis 客户端的缓存底座
func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func (s *redisStore) LPush(ctx context.Context, key string, values ...string) error {
	args := make([]interface{}, 0, len(values))
	for _, v := range values {
		args = append(args, v)
	}
	return s.rdb.LPush(ctx, key, args...).Err()
}

func (s *redisStore) LTrim(ctx context.Context, key string, start, stop int64) error {
	return s.rdb.LTrim(ctx, key, start, stop).Err()
}

func (s *redisStore) LRange(ctx context.Context, key string) ([]string, error) {
	return s.rdb.LRange(ctx, key, 0, -1).Result()
}

// RewriteList 通过事务管道完成 DEL + RPUSH + LTRIM + EXPIRE
// 避免重建过程中被并发读取到半成品列表。
func (s *redisStore) RewriteList(ctx context.Context, key string, values []string, maxLen int64, ttl time.Duration) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		args := make([]interface{}, 0, len(values))
		for _, v := range values {
			args = append(args, v)
		}
		pipe.RPush(ctx, key, args...)
		pipe.LTrim(ctx, key, 0, maxLen-1)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.rdb.TTL(ctx, key).Result()
}

func (s *redisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Expire(ctx, key, ttl).Err()
}

func (s *redisStore) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *redisStore) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) GetString(ctx context.Context, key string) (string, bool, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

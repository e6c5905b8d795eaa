package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// AddToSet 向集合添加成员
func AddToSet(ctx context.Context, key string, member string) error {
	return Rdb.SAdd(ctx, key, member).Err()
}

// RemoveFromSet 移除集合成员
func RemoveFromSet(ctx context.Context, key string, member string) error {
	return Rdb.SRem(ctx, key, member).Err()
}

// IsSetMember 判断成员是否在集合中
func IsSetMember(ctx context.Context, key string, member string) (bool, error) {
	return Rdb.SIsMember(ctx, key, member).Result()
}

// GetSet 获取集合全部成员
func GetSet(ctx context.Context, key string) ([]string, error) {
	value, err := Rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	return value, nil
}

// IncrHashField 对哈希字段做增量, 返回增量后的值
func IncrHashField(ctx context.Context, key string, field string, delta int64) (int64, error) {
	return Rdb.HIncrBy(ctx, key, field, delta).Result()
}

// DeleteHashField 删除哈希字段
func DeleteHashField(ctx context.Context, key string, field string) error {
	return Rdb.HDel(ctx, key, field).Err()
}

// DeleteKey 删除一个键
func DeleteKey(ctx context.Context, key string) error {
	return Rdb.Del(ctx, key).Err()
}

// Publish 发布消息到指定频道
func Publish(ctx context.Context, channel string, payload []byte) error {
	return Rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe 订阅一个或多个频道
func Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return Rdb.Subscribe(ctx, channels...)
}

// PSubscribe 按模式订阅频道
func PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	return Rdb.PSubscribe(ctx, patterns...)
}

// GetRdbClient 获取redis客户端
func GetRdbClient() *redis.Client {
	return Rdb
}

package persist

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter：共享存储域的 Redis 实现
// 背景：主进程与分享扩展进程各自持有客户端，通过同一 Redis 实例共享记录；
// 键加统一前缀避免与其他业务冲突
type RedisAdapter struct {
	rc     *redis.Client
	prefix string
}

func NewRedisAdapter(rc *redis.Client) *RedisAdapter {
	return &RedisAdapter{rc: rc, prefix: "locsim:"}
}

func (a *RedisAdapter) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := a.rc.Get(ctx, a.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (a *RedisAdapter) Set(ctx context.Context, key, value string) error {
	return a.rc.Set(ctx, a.prefix+key, value, 0).Err()
}

func (a *RedisAdapter) Remove(ctx context.Context, key string) error {
	return a.rc.Del(ctx, a.prefix+key).Err()
}

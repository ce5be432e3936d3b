package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
)

// luaReleaseLockIfMatch 仅当锁值匹配本次持有 token 时才删除，
// 避免租约过期后误删其他持有者的锁。
const luaReleaseLockIfMatch = `
local lockKey = KEYS[1]
local token = ARGV[1]
if redis.call('GET', lockKey) == token then
  return redis.call('DEL', lockKey)
end
return 0
`

// 获取失败后的重试间隔；短于它锁竞争会打满 Redis，长于它白白浪费等待窗口。
const lockRetryInterval = 30 * time.Millisecond

// ActivityLock 活动级互斥锁的一次持有。
type ActivityLock struct {
	rdb   *rd.Client
	key   string
	token string
}

// AcquireActivityLock 在 wait 上限内尝试获取活动锁，租约 lease 到期自动释放。
// acquired=false 表示等待超时（竞争退让信号），不是错误。
func AcquireActivityLock(ctx context.Context, rdb *rd.Client, activityID uint, wait, lease time.Duration) (*ActivityLock, bool, error) {
	key := LockKey(activityID)
	token := uuid.New().String()
	deadline := time.Now().Add(wait)

	for {
		ok, err := rdb.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return &ActivityLock{rdb: rdb, key: key, token: token}, true, nil
		}
		if time.Now().After(deadline) {
			return nil, false, nil
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// Release 安全释放锁；租约已过期时是无害的空操作。
func (l *ActivityLock) Release(ctx context.Context) error {
	_, err := l.rdb.Eval(ctx, luaReleaseLockIfMatch, []string{l.key}, l.token).Int()
	return err
}

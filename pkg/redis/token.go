package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
)

// IssueToken 为 (activity, user) 生成一次性秒杀口令并覆盖旧值。
// 口令只负责让抢购入口短时效、不可猜测，不承担强鉴权。
func IssueToken(ctx context.Context, rdb *rd.Client, activityID uint, userID int64, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	if err := rdb.Set(ctx, TokenKey(activityID, userID), token, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// GetToken 查询当前有效口令。found=false 表示从未签发或已过期。
func GetToken(ctx context.Context, rdb *rd.Client, activityID uint, userID int64) (string, bool, error) {
	v, err := rdb.Get(ctx, TokenKey(activityID, userID)).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

// ConsumeToken 中签后作废口令，防止同一口令重放。
func ConsumeToken(ctx context.Context, rdb *rd.Client, activityID uint, userID int64) error {
	return rdb.Del(ctx, TokenKey(activityID, userID)).Err()
}

package seckill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"seckill/internal/model"
	rediskey "seckill/pkg/redis"

	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RedisTokenStore 基于 Redis 的口令存储。
type RedisTokenStore struct {
	rdb *rd.Client
	ttl time.Duration
}

func NewRedisTokenStore(rdb *rd.Client, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, ttl: ttl}
}

func (s *RedisTokenStore) Issue(ctx context.Context, activityID uint, userID int64) (string, error) {
	return rediskey.IssueToken(ctx, s.rdb, activityID, userID, s.ttl)
}

func (s *RedisTokenStore) Get(ctx context.Context, activityID uint, userID int64) (string, bool, error) {
	return rediskey.GetToken(ctx, s.rdb, activityID, userID)
}

func (s *RedisTokenStore) Consume(ctx context.Context, activityID uint, userID int64) error {
	return rediskey.ConsumeToken(ctx, s.rdb, activityID, userID)
}

// RedisLedger 基于 Redis 的库存账本，中签事件写入指定 Stream。
type RedisLedger struct {
	rdb    *rd.Client
	stream string
}

func NewRedisLedger(rdb *rd.Client, stream string) *RedisLedger {
	return &RedisLedger{rdb: rdb, stream: stream}
}

func (l *RedisLedger) Reserve(ctx context.Context, activityID uint, userID int64, at time.Time) (ReserveStatus, error) {
	status, _, err := rediskey.Reserve(ctx, l.rdb, l.stream, activityID, userID, at)
	if err != nil {
		return 0, err
	}
	switch status {
	case rediskey.ReserveAlreadyWon:
		return ReserveAlreadyWon, nil
	case rediskey.ReserveSoldOut:
		return ReserveSoldOut, nil
	default:
		return ReserveOK, nil
	}
}

func (l *RedisLedger) Remaining(ctx context.Context, activityID uint) (int64, error) {
	return rediskey.GetStock(ctx, l.rdb, activityID)
}

func (l *RedisLedger) HasClaim(ctx context.Context, activityID uint, userID int64) (bool, error) {
	return rediskey.HasClaim(ctx, l.rdb, activityID, userID)
}

// RedisLocker 基于 Redis 的活动锁（有界等待 + 租约）。
type RedisLocker struct {
	rdb   *rd.Client
	wait  time.Duration
	lease time.Duration
}

func NewRedisLocker(rdb *rd.Client, wait, lease time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, wait: wait, lease: lease}
}

func (l *RedisLocker) Acquire(ctx context.Context, activityID uint) (func(context.Context), bool, error) {
	lock, acquired, err := rediskey.AcquireActivityLock(ctx, l.rdb, activityID, l.wait, l.lease)
	if err != nil || !acquired {
		return nil, false, err
	}
	return func(ctx context.Context) { _ = lock.Release(ctx) }, true, nil
}

// GormTicketReader 从票表查询中签记录。
type GormTicketReader struct {
	db *gorm.DB
}

func NewGormTicketReader(db *gorm.DB) *GormTicketReader {
	return &GormTicketReader{db: db}
}

func (r *GormTicketReader) Find(ctx context.Context, activityID uint, userID int64) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// CachedActivityReader 活动元数据读取：Redis 缓存优先，未命中回源 DB 并回填。
type CachedActivityReader struct {
	db  *gorm.DB
	rdb *rd.Client
	ttl time.Duration
}

func NewCachedActivityReader(db *gorm.DB, rdb *rd.Client, ttl time.Duration) *CachedActivityReader {
	return &CachedActivityReader{db: db, rdb: rdb, ttl: ttl}
}

func (r *CachedActivityReader) Get(ctx context.Context, activityID uint) (model.Activity, bool, error) {
	key := rediskey.ActivityCacheKey(activityID)
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var act model.Activity
		if jerr := json.Unmarshal(raw, &act); jerr == nil {
			return act, true, nil
		}
		// 缓存内容损坏时回源，不让坏数据阻断准入
	} else if !errors.Is(err, rd.Nil) {
		return model.Activity{}, false, fmt.Errorf("activity cache get: %w", err)
	}

	var act model.Activity
	if err := r.db.WithContext(ctx).First(&act, activityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Activity{}, false, nil
		}
		return model.Activity{}, false, err
	}

	if b, jerr := json.Marshal(act); jerr == nil {
		_ = r.rdb.Set(ctx, key, b, r.ttl).Err()
	}
	return act, true, nil
}

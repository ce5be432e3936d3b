package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaReserve：锁内执行的原子「占位 → 查库存 → 扣减 → 入流」。
// KEYS[1]=claim key，KEYS[2]=库存key，KEYS[3]=事件流key
// ARGV[1]=claim TTL 秒，ARGV[2]=user_id，ARGV[3]=activity_id，ARGV[4]=时间戳
// 返回：-2 重复占位，-1 库存不足，>=0 扣减后剩余库存。
// XADD 与 DECRBY 在同一脚本内完成，中签事件不可能在扣减后丢失。
const luaReserve = `
local claimKey = KEYS[1]
local stockKey = KEYS[2]
local streamKey = KEYS[3]

if redis.call('EXISTS', claimKey) == 1 then
  return -2
end

local stock = tonumber(redis.call('GET', stockKey) or '0')
if stock <= 0 then
  return -1
end

redis.call('SET', claimKey, '1', 'EX', tonumber(ARGV[1]))
local left = redis.call('DECRBY', stockKey, 1)
redis.call('XADD', streamKey, '*',
  'user_id', ARGV[2],
  'activity_id', ARGV[3],
  'ts', ARGV[4])
return left
`

// claim 占位的保留时长：覆盖整场活动直至结果查询不再有意义。
const claimTTL = 24 * time.Hour

// ReserveStatus 是账本扣减的三种结局。
type ReserveStatus int

const (
	ReserveOK         ReserveStatus = iota // 扣减成功，事件已入流
	ReserveSoldOut                         // 库存不足
	ReserveAlreadyWon                      // 该用户已占位中签
)

// Reserve 在活动锁内调用：first-claim-wins 占位 + 库存扣减 + 中签事件入流，
// 三步在 Redis 内原子完成。事件时间戳 at 由调用方的时钟给出。
func Reserve(ctx context.Context, rdb *rd.Client, stream string, activityID uint, userID int64, at time.Time) (ReserveStatus, int64, error) {
	keys := []string{
		ClaimKey(activityID, userID),
		StockKey(activityID),
		stream,
	}
	res, err := rdb.Eval(ctx, luaReserve, keys,
		int64(claimTTL/time.Second),
		strconv.FormatInt(userID, 10),
		strconv.FormatUint(uint64(activityID), 10),
		strconv.FormatInt(at.Unix(), 10),
	).Int64()
	if err != nil {
		return 0, 0, err
	}
	switch {
	case res == -2:
		return ReserveAlreadyWon, 0, nil
	case res < 0:
		return ReserveSoldOut, 0, nil
	default:
		return ReserveOK, res, nil
	}
}

// SeedStock 预热/重置活动库存账本。仅预热接口调用，活动进行中不重置。
func SeedStock(ctx context.Context, rdb *rd.Client, activityID uint, stock int64, ttl time.Duration) error {
	return rdb.Set(ctx, StockKey(activityID), stock, ttl).Err()
}

// GetStock 查询剩余库存。key 不存在按 0 处理（未预热或已过期）。
func GetStock(ctx context.Context, rdb *rd.Client, activityID uint) (int64, error) {
	v, err := rdb.Get(ctx, StockKey(activityID)).Int64()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}

// HasClaim 查询用户是否已有中签占位（结果查询用，纯读）。
func HasClaim(ctx context.Context, rdb *rd.Client, activityID uint, userID int64) (bool, error) {
	n, err := rdb.Exists(ctx, ClaimKey(activityID, userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

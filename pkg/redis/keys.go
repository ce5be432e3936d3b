package redis

import "fmt"

// TokenKey 某用户参与某活动的秒杀口令。
func TokenKey(activityID uint, userID int64) string {
	return fmt.Sprintf("seckill:path:%d:%d", activityID, userID)
}

// StockKey 活动的实时库存账本。
func StockKey(activityID uint) string {
	return fmt.Sprintf("seckill:stock:%d", activityID)
}

// ClaimKey 标记某用户在某活动上「首次中签」的占位，锁内抢占成功即写入。
func ClaimKey(activityID uint, userID int64) string {
	return fmt.Sprintf("seckill:claim:%d:%d", activityID, userID)
}

// LockKey 活动级互斥锁。
func LockKey(activityID uint) string {
	return fmt.Sprintf("seckill:lock:%d", activityID)
}

// ActivityCacheKey 活动元数据缓存。
func ActivityCacheKey(activityID uint) string {
	return fmt.Sprintf("seckill:activity:%d", activityID)
}

package catalog

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"seckill/internal/model"
	rediskey "seckill/pkg/redis"

	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 库存账本的保留时长：覆盖整场活动。活动中途不会因过期清零。
const stockTTL = 24 * time.Hour

// Service 活动预热与查询：从 DB 权威数据重建 Redis 库存账本与活动缓存。
// 预热是显式触发的操作，活动进行中核心不会自行重置账本。
type Service struct {
	db       *gorm.DB
	rdb      *rd.Client
	cacheTTL time.Duration
}

func NewService(db *gorm.DB, rdb *rd.Client, cacheTTL time.Duration) *Service {
	return &Service{db: db, rdb: rdb, cacheTTL: cacheTTL}
}

// WarmUp 预热即将开始与进行中的活动：
// 对每个活动写入库存账本 seckill:stock:<id>，并缓存活动元数据。
// 返回预热的活动数。
func (s *Service) WarmUp(ctx context.Context) (int, error) {
	activities, err := s.upcoming(ctx)
	if err != nil {
		return 0, err
	}

	for _, act := range activities {
		if err := rediskey.SeedStock(ctx, s.rdb, act.ID, act.Stock, stockTTL); err != nil {
			return 0, err
		}
		b, err := json.Marshal(act)
		if err != nil {
			return 0, err
		}
		if err := s.rdb.Set(ctx, rediskey.ActivityCacheKey(act.ID), b, s.cacheTTL).Err(); err != nil {
			return 0, err
		}
		log.Printf("activity warmed up: activity=%d stock=%d", act.ID, act.Stock)
	}
	return len(activities), nil
}

// ListLive 列出进行中与一小时内开始的活动，供客户端发现秒杀场次。
func (s *Service) ListLive(ctx context.Context) ([]model.Activity, error) {
	return s.upcoming(ctx)
}

func (s *Service) upcoming(ctx context.Context) ([]model.Activity, error) {
	now := time.Now()
	var list []model.Activity
	err := s.db.WithContext(ctx).
		Where("status = ? AND start_time <= ? AND end_time >= ?",
			model.ActivityLive, now.Add(time.Hour), now).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

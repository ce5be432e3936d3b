package model

import (
	"time"

	"gorm.io/gorm"
)

// 活动状态：0 未上线 1 进行中 2 已结束
const (
	ActivityOffline = 0
	ActivityLive    = 1
	ActivityEnded   = 2
)

// Activity 秒杀活动：商品、秒杀价、总库存、时间窗。
// Stock 是初始总量（来源于 DB）；实时扣减走 Redis 库存账本。
type Activity struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProductID    uint      `gorm:"not null;index" json:"product_id"`
	SeckillPrice int64     `gorm:"not null" json:"seckill_price"` // 单位分
	Stock        int64     `gorm:"not null;default:0" json:"stock"`
	StartTime    time.Time `gorm:"not null" json:"start_time"`
	EndTime      time.Time `gorm:"not null" json:"end_time"`
	Status       int       `gorm:"not null;default:0;index" json:"status"`
	Version      int64     `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
}

func (Activity) TableName() string { return "seckill_activities" }

// Live 判断活动当前是否可参与：状态为进行中且处于时间窗内。
func (a Activity) Live(now time.Time) bool {
	return a.Status == ActivityLive && !now.Before(a.StartTime) && !now.After(a.EndTime)
}

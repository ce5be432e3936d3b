package model

import "time"

// Ticket 秒杀中签记录（与下游支付订单解耦）。
// (user_id, activity_id) 联合唯一索引是全链路去重的最后一道防线：
// 消费端重复投递、应用层竞态漏判，最终都会撞到这条约束。
type Ticket struct {
	ID         int64     `gorm:"primarykey" json:"id"` // snowflake 发号
	UserID     int64     `gorm:"not null;uniqueIndex:idx_ticket_user_activity" json:"user_id"`
	ActivityID uint      `gorm:"not null;uniqueIndex:idx_ticket_user_activity" json:"activity_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Ticket) TableName() string { return "seckill_tickets" }

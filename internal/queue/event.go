package queue

import "fmt"

// ReservationEvent 是准入临界区产出的「(user, activity) 中签」事实。
// 至少一次投递，消费端靠票表唯一约束幂等。
type ReservationEvent struct {
	UserID     int64 `json:"user_id"`
	ActivityID uint  `json:"activity_id"`
	Timestamp  int64 `json:"ts"` // 中签时刻，Unix 秒
}

// Key 作为 Kafka 消息 key：同一 (user, activity) 落到同一分区，
// 也是这条事实的天然幂等标识。
func (e ReservationEvent) Key() string {
	return fmt.Sprintf("%d:%d", e.UserID, e.ActivityID)
}

// Validate 做最小字段校验，防止消费者处理脏消息。
func (e ReservationEvent) Validate() error {
	if e.UserID <= 0 {
		return fmt.Errorf("user_id is required")
	}
	if e.ActivityID == 0 {
		return fmt.Errorf("activity_id is required")
	}
	return nil
}

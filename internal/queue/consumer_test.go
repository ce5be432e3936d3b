package queue

import (
	"context"
	"fmt"
	"testing"

	"seckill/internal/model"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// 每个用例独立的共享缓存内存库，避免连接池拿到不同的 :memory: 实例
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Ticket{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestConsumer(t *testing.T, db *gorm.DB) *Consumer {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Consumer{db: db, node: node}
}

func countTickets(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.Ticket{}).Count(&n).Error; err != nil {
		t.Fatalf("count tickets: %v", err)
	}
	return n
}

func TestMaterializeCreatesTicket(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	c := newTestConsumer(t, db)

	event := ReservationEvent{UserID: 42, ActivityID: 1, Timestamp: 1756728000}
	if err := c.materialize(context.Background(), event); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	var ticket model.Ticket
	if err := db.Where("user_id = ? AND activity_id = ?", 42, 1).First(&ticket).Error; err != nil {
		t.Fatalf("find ticket: %v", err)
	}
	if ticket.ID == 0 {
		t.Fatalf("ticket id must be assigned")
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	c := newTestConsumer(t, db)
	ctx := context.Background()

	event := ReservationEvent{UserID: 42, ActivityID: 1, Timestamp: 1756728000}

	// 同一事件重复投递：第二次撞唯一约束，按成功处理
	if err := c.materialize(ctx, event); err != nil {
		t.Fatalf("first materialize: %v", err)
	}
	if err := c.materialize(ctx, event); err != nil {
		t.Fatalf("duplicate materialize should be a no-op, got %v", err)
	}

	if n := countTickets(t, db); n != 1 {
		t.Fatalf("expected exactly 1 ticket, got %d", n)
	}
}

func TestMaterializeDistinctPairs(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	c := newTestConsumer(t, db)
	ctx := context.Background()

	events := []ReservationEvent{
		{UserID: 1, ActivityID: 1, Timestamp: 1},
		{UserID: 2, ActivityID: 1, Timestamp: 2},
		{UserID: 1, ActivityID: 2, Timestamp: 3}, // 同用户不同活动：允许
	}
	for _, e := range events {
		if err := c.materialize(ctx, e); err != nil {
			t.Fatalf("materialize %+v: %v", e, err)
		}
	}

	if n := countTickets(t, db); n != 3 {
		t.Fatalf("expected 3 tickets, got %d", n)
	}
}

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	t.Run("decodes valid payload", func(t *testing.T) {
		event, err := decodeEvent([]byte(`{"user_id":42,"activity_id":7,"ts":1756728000}`))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if event.UserID != 42 || event.ActivityID != 7 || event.Timestamp != 1756728000 {
			t.Fatalf("unexpected event %+v", event)
		}
	})

	t.Run("rejects wrong field type", func(t *testing.T) {
		if _, err := decodeEvent([]byte(`{"user_id":"not-a-number"}`)); err == nil {
			t.Fatalf("expected error for non-numeric user_id")
		}
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		if _, err := decodeEvent([]byte(`{garbage`)); err == nil {
			t.Fatalf("expected error for invalid json")
		}
	})

	t.Run("rejects zero ids", func(t *testing.T) {
		if _, err := decodeEvent([]byte(`{"user_id":0,"activity_id":0}`)); err == nil {
			t.Fatalf("expected validation error for zero ids")
		}
	})
}

func TestMalformedPayloadInsertsNothing(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	c := newTestConsumer(t, db)

	// 消费路径对脏消息的处理：解析即失败，绝不能落出零值票
	payloads := [][]byte{
		[]byte(`{"user_id":"not-a-number"}`),
		[]byte(`not json at all`),
		[]byte(`{}`),
	}
	for _, p := range payloads {
		event, err := decodeEvent(p)
		if err == nil {
			t.Fatalf("payload %q must fail to decode", p)
		}
		// 即便零值事件绕过解析直接到达落库层，也会被校验拦下
		if err := c.materialize(context.Background(), event); err == nil {
			t.Fatalf("materialize must reject zero-value event for payload %q", p)
		}
	}

	if n := countTickets(t, db); n != 0 {
		t.Fatalf("expected no tickets from malformed payloads, got %d", n)
	}
}

func TestTicketUniqueConstraint(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	// 绕过消费者直接写表：唯一约束必须在存储层成立
	if err := db.Create(&model.Ticket{ID: 1, UserID: 9, ActivityID: 3}).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := db.Create(&model.Ticket{ID: 2, UserID: 9, ActivityID: 3}).Error
	if err == nil {
		t.Fatalf("second insert for same (user, activity) must fail")
	}
	if !errorsLikeUnique(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

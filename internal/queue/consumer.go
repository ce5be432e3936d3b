package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"seckill/internal/model"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// Consumer 是出票消费者（Order Materializer）：
// 把 Kafka 中的中签事件落成持久化票记录。
// 手动提交位点：只有在票成功落库（或确认为重复投递）后才 Commit，
// 落库失败的事件不会被静默跳过。
type Consumer struct {
	r    *kafka.Reader
	db   *gorm.DB
	node *snowflake.Node
}

func NewConsumer(brokers []string, topic, groupID string, db *gorm.DB, node *snowflake.Node) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		db:   db,
		node: node,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			return // ctx cancel / 连接断开等
		}

		event, err := decodeEvent(m.Value)
		if err != nil {
			// 脏消息不可恢复，记日志后提交位点永久丢弃
			log.Printf("consumer drop malformed event offset=%d: %v", m.Offset, err)
			c.commit(ctx, m)
			continue
		}

		// 落库失败时退避重试同一条事件，直到成功或进程退出
		for {
			if err := c.materialize(ctx, event); err != nil {
				log.Printf("consumer materialize user=%d activity=%d: %v", event.UserID, event.ActivityID, err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(500 * time.Millisecond):
				}
				continue
			}
			break
		}
		c.commit(ctx, m)
	}
}

// decodeEvent 解析 Kafka 消息体并做字段校验。
// 解析失败与校验失败同等对待：都是不可恢复的脏消息。
func decodeEvent(value []byte) (ReservationEvent, error) {
	var event ReservationEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return ReservationEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return ReservationEvent{}, err
	}
	return event, nil
}

// materialize 将一条中签事件落成票。重复投递撞唯一约束视为成功。
func (c *Consumer) materialize(ctx context.Context, event ReservationEvent) error {
	// Run 已做过解析校验；这里再拦一道，防止零值事件污染去重表
	if err := event.Validate(); err != nil {
		return err
	}
	ticket := &model.Ticket{
		ID:         c.node.Generate().Int64(),
		UserID:     event.UserID,
		ActivityID: event.ActivityID,
	}
	if err := c.db.WithContext(ctx).Create(ticket).Error; err != nil {
		if errorsLikeUnique(err) {
			return nil
		}
		return fmt.Errorf("create ticket: %w", err)
	}
	log.Printf("ticket created: user=%d activity=%d ticket=%d", event.UserID, event.ActivityID, ticket.ID)
	return nil
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.r.CommitMessages(ctx, m); err != nil {
		// 提交失败最多导致重复投递，由唯一约束兜底
		log.Printf("consumer commit offset=%d: %v", m.Offset, err)
	}
}

func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}

package seckill

import (
	"context"
	"log"
	"time"

	"seckill/internal/model"
)

// ReserveStatus 账本扣减的结局。
type ReserveStatus int

const (
	ReserveOK         ReserveStatus = iota // 占位 + 扣减 + 事件入流成功
	ReserveSoldOut                         // 库存不足
	ReserveAlreadyWon                      // 该用户已占位中签
)

// TokenStore 秒杀口令的签发与校验存储。
type TokenStore interface {
	Issue(ctx context.Context, activityID uint, userID int64) (string, error)
	Get(ctx context.Context, activityID uint, userID int64) (string, bool, error)
	// Consume 中签后作废口令，阻断重放。
	Consume(ctx context.Context, activityID uint, userID int64) error
}

// StockLedger 集群可见的库存账本。Reserve 必须在活动锁内调用，
// 且要求「占位检查、扣减、事件发布」对外表现为一次原子操作；
// at 是写进中签事件的时间戳，由服务的时钟给出。
type StockLedger interface {
	Reserve(ctx context.Context, activityID uint, userID int64, at time.Time) (ReserveStatus, error)
	Remaining(ctx context.Context, activityID uint) (int64, error)
	HasClaim(ctx context.Context, activityID uint, userID int64) (bool, error)
}

// Locker 活动级互斥锁：有界等待 + 租约自动过期。
// acquired=false 表示等待超时退让，不是错误。
type Locker interface {
	Acquire(ctx context.Context, activityID uint) (release func(context.Context), acquired bool, err error)
}

// TicketReader 查询已落库的中签记录。不存在时返回 (nil, nil)。
type TicketReader interface {
	Find(ctx context.Context, activityID uint, userID int64) (*model.Ticket, error)
}

// ActivityReader 读取活动元数据（缓存优先，回源 DB）。
type ActivityReader interface {
	Get(ctx context.Context, activityID uint) (model.Activity, bool, error)
}

// Service 秒杀准入管线：口令签发、准入临界区、结果查询。
type Service struct {
	tokens     TokenStore
	ledger     StockLedger
	locks      Locker
	tickets    TicketReader
	activities ActivityReader

	now func() time.Time
}

func NewService(tokens TokenStore, ledger StockLedger, locks Locker, tickets TicketReader, activities ActivityReader) *Service {
	return &Service{
		tokens:     tokens,
		ledger:     ledger,
		locks:      locks,
		tickets:    tickets,
		activities: activities,
		now:        time.Now,
	}
}

// IssuePath 签发秒杀口令。无条件成功：口令的职责只是让抢购入口
// 短时效、不可猜测，不做资格判断。
func (s *Service) IssuePath(ctx context.Context, activityID uint, userID int64) (string, error) {
	path, err := s.tokens.Issue(ctx, activityID, userID)
	if err != nil {
		return "", err
	}
	log.Printf("seckill path issued: activity=%d user=%d", activityID, userID)
	return path, nil
}

// Admit 准入临界区。每次调用恰好返回 {拒绝+原因, pending} 之一；
// error 仅表示基础设施故障。
func (s *Service) Admit(ctx context.Context, activityID uint, userID int64, presented string) (Outcome, error) {
	// 1. 活动门槛：存在、上线、处于时间窗内
	act, found, err := s.activities.Get(ctx, activityID)
	if err != nil {
		return Outcome{}, err
	}
	if !found || !act.Live(s.now()) {
		return rejected(ReasonNotActive, "活动不存在或不在秒杀时间段内"), nil
	}

	// 2. 口令校验：缺失/过期/不匹配一律拒绝
	valid, ok, err := s.tokens.Get(ctx, activityID, userID)
	if err != nil {
		return Outcome{}, err
	}
	if !ok || presented == "" || presented != valid {
		log.Printf("invalid seckill path: activity=%d user=%d", activityID, userID)
		return rejected(ReasonInvalidPath, "秒杀口令无效"), nil
	}

	// 3. 限购快检：已落库的票直接拒绝。
	// 这条查询落后于异步落票，真正的去重在锁内的占位标记。
	ticket, err := s.tickets.Find(ctx, activityID, userID)
	if err != nil {
		return Outcome{}, err
	}
	if ticket != nil {
		return rejected(ReasonAlreadyParticipate, "该活动已参与过，限购一件"), nil
	}

	// 4. 有界等待获取活动锁；超时向调用方退让而不是排队
	release, acquired, err := s.locks.Acquire(ctx, activityID)
	if err != nil {
		return Outcome{}, err
	}
	if !acquired {
		log.Printf("lock contended: activity=%d user=%d", activityID, userID)
		return pending(ReasonContended, "排队人数过多，请稍后查询结果"), nil
	}
	defer release(ctx)

	// 5. 锁内原子：占位 → 扣减 → 事件入流
	status, err := s.ledger.Reserve(ctx, activityID, userID, s.now())
	if err != nil {
		return Outcome{}, err
	}
	switch status {
	case ReserveAlreadyWon:
		return rejected(ReasonAlreadyParticipate, "该活动已参与过，限购一件"), nil
	case ReserveSoldOut:
		return rejected(ReasonSoldOut, "已售罄"), nil
	}

	// 6. 中签后作废口令；失败只记日志，不影响已成立的中签事实
	if err := s.tokens.Consume(ctx, activityID, userID); err != nil {
		log.Printf("consume token: activity=%d user=%d: %v", activityID, userID, err)
	}

	log.Printf("reservation accepted: activity=%d user=%d", activityID, userID)
	return pending(ReasonAccepted, "抢购成功，等待出票确认"), nil
}

// Result 结果查询，纯读，可安全轮询。
// 票已落库 → confirmed；有占位或仍有库存 → pending；否则 ended。
func (s *Service) Result(ctx context.Context, activityID uint, userID int64) (Result, error) {
	ticket, err := s.tickets.Find(ctx, activityID, userID)
	if err != nil {
		return Result{}, err
	}
	if ticket != nil {
		return Result{Status: StatusConfirmed, Message: "秒杀成功", OrderID: ticket.ID}, nil
	}

	// 占位已成、票未落库：库存清零也必须报 pending，否则中签者会误读「已结束」
	claimed, err := s.ledger.HasClaim(ctx, activityID, userID)
	if err != nil {
		return Result{}, err
	}
	if claimed {
		return Result{Status: StatusPending, Message: "出票中，请稍候"}, nil
	}

	left, err := s.ledger.Remaining(ctx, activityID)
	if err != nil {
		return Result{}, err
	}
	if left > 0 {
		return Result{Status: StatusPending, Message: "排队中，请稍候"}, nil
	}
	return Result{Status: StatusEnded, Message: "秒杀已结束"}, nil
}

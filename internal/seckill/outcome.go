package seckill

// Reason 准入结论的机器可读原因码。
type Reason string

const (
	ReasonAccepted           Reason = "accepted"             // 已扣库存，等待异步落票
	ReasonContended          Reason = "contended"            // 锁竞争退让，请稍后重试
	ReasonInvalidPath        Reason = "invalid_path"         // 口令缺失/不匹配/已过期
	ReasonAlreadyParticipate Reason = "already_participated" // 限购一件，重复参与
	ReasonSoldOut            Reason = "sold_out"             // 库存不足
	ReasonNotActive          Reason = "not_active"           // 活动不存在或不在时间窗内
)

// Outcome 一次准入尝试的唯一结论：要么 pending，要么带原因拒绝。
type Outcome struct {
	Pending bool
	Reason  Reason
	Message string
}

func rejected(reason Reason, msg string) Outcome {
	return Outcome{Pending: false, Reason: reason, Message: msg}
}

func pending(reason Reason, msg string) Outcome {
	return Outcome{Pending: true, Reason: reason, Message: msg}
}

// 查询结果状态码，与对外 HTTP 契约一致。
const (
	StatusConfirmed = 1  // 已出票
	StatusPending   = 0  // 排队中/落票中
	StatusEnded     = -1 // 已售罄或活动结束且未中签
)

// Result 结果查询的应答。Status==StatusConfirmed 时 OrderID 有效。
type Result struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	OrderID int64  `json:"order_id,omitempty"`
}

package queue

import (
	"encoding/json"
	"time"

	"github.com/cafe-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusChanged 订单状态变更任务
	TaskOrderStatusChanged = constants.TaskOrderStatusChanged
	// TaskVoucherSweep 优惠券有效期巡检任务
	TaskVoucherSweep = constants.TaskVoucherSweep
)

// OrderStatusChangedPayload 订单状态变更任务载荷
type OrderStatusChangedPayload struct {
	OrderID    uint                  `json:"order_id"`
	OrderCode  string                `json:"order_code"`
	UserID     uint                  `json:"user_id"`
	FromStatus constants.OrderStatus `json:"from_status"`
	ToStatus   constants.OrderStatus `json:"to_status"`
	Event      string                `json:"event"`
	Actor      string                `json:"actor"`
	Reason     string                `json:"reason,omitempty"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// VoucherSweepPayload 优惠券巡检任务载荷
type VoucherSweepPayload struct {
	RequestedBy string `json:"requested_by"`
}

// NewOrderStatusChangedTask 创建订单状态变更任务
func NewOrderStatusChangedTask(payload OrderStatusChangedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusChanged, body, asynq.MaxRetry(5)), nil
}

// NewVoucherSweepTask 创建优惠券巡检任务
func NewVoucherSweepTask(payload VoucherSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// 同一分钟内重复触发只保留一个待执行任务
	return asynq.NewTask(TaskVoucherSweep, body, asynq.Unique(time.Minute), asynq.MaxRetry(0)), nil
}

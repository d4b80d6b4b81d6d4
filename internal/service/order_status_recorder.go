package service

import (
	"context"
	"time"

	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/queue"
	"github.com/cafe-next/internal/repository"
)

// StatusNotifier 订单状态变更通知
type StatusNotifier interface {
	NotifyOrderStatus(ctx context.Context, payload queue.OrderStatusChangedPayload) error
}

// LogStatusNotifier 以日志形式输出通知
type LogStatusNotifier struct{}

// NotifyOrderStatus 记录通知日志
func (LogStatusNotifier) NotifyOrderStatus(_ context.Context, payload queue.OrderStatusChangedPayload) error {
	logger.Infow("order_status_notified",
		"order_id", payload.OrderID,
		"order_code", payload.OrderCode,
		"user_id", payload.UserID,
		"from_status", payload.FromStatus.String(),
		"to_status", payload.ToStatus.String(),
		"event", payload.Event,
		"actor", payload.Actor,
	)
	return nil
}

// OrderStatusRecorder 消费状态变更事件：写入历史并发送通知
type OrderStatusRecorder struct {
	logRepo  repository.OrderStatusLogRepository
	notifier StatusNotifier
}

// NewOrderStatusRecorder 创建状态变更记录器
func NewOrderStatusRecorder(logRepo repository.OrderStatusLogRepository, notifier StatusNotifier) *OrderStatusRecorder {
	if notifier == nil {
		notifier = LogStatusNotifier{}
	}
	return &OrderStatusRecorder{logRepo: logRepo, notifier: notifier}
}

// Record 写入状态历史后通知
func (r *OrderStatusRecorder) Record(ctx context.Context, payload queue.OrderStatusChangedPayload) error {
	occurredAt := payload.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	entry := &models.OrderStatusLog{
		OrderID:    payload.OrderID,
		FromStatus: payload.FromStatus,
		ToStatus:   payload.ToStatus,
		Event:      payload.Event,
		Actor:      payload.Actor,
		Reason:     payload.Reason,
		OccurredAt: occurredAt,
	}
	if err := r.logRepo.Create(entry); err != nil {
		return err
	}
	return r.notifier.NotifyOrderStatus(ctx, payload)
}

// History 获取订单状态历史
func (r *OrderStatusRecorder) History(filter repository.OrderStatusLogListFilter) ([]models.OrderStatusLog, int64, error) {
	return r.logRepo.List(filter)
}

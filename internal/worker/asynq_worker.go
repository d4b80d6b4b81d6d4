package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/provider"
	"github.com/cafe-next/internal/queue"
	"github.com/cafe-next/internal/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func workerLog() *zap.SugaredLogger { return logger.Named("worker") }

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		workerLog().Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusChanged, c.handleOrderStatusChanged)
	mux.HandleFunc(queue.TaskVoucherSweep, c.handleVoucherSweep)
}

func (c *Consumer) handleOrderStatusChanged(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		workerLog().Debugw("worker_order_status_changed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		workerLog().Warnw("worker_order_status_changed_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		workerLog().Debugw("worker_order_status_changed_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderStatusRecorder == nil {
		workerLog().Warnw("worker_order_status_changed_skip_recorder_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderStatusRecorder.Record(ctx, payload); err != nil {
		workerLog().Warnw("worker_order_status_changed_record_failed",
			"order_id", payload.OrderID,
			"order_code", payload.OrderCode,
			"to_status", payload.ToStatus.String(),
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleVoucherSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		workerLog().Debugw("worker_voucher_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.VoucherSweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			workerLog().Warnw("worker_voucher_sweep_unmarshal_failed", "error", err)
			return err
		}
	}
	return c.runVoucherSweep(ctx, payload.RequestedBy)
}

func (c *Consumer) runVoucherSweep(ctx context.Context, trigger string) error {
	if c.VoucherSweeper == nil {
		workerLog().Warnw("worker_voucher_sweep_skip_sweeper_nil", "trigger", trigger)
		return nil
	}
	result, err := c.VoucherSweeper.Sweep(ctx)
	if err != nil {
		if errors.Is(err, service.ErrSweepLockNotHeld) {
			workerLog().Debugw("worker_voucher_sweep_skip_locked", "trigger", trigger)
			return nil
		}
		workerLog().Warnw("worker_voucher_sweep_failed", "trigger", trigger, "error", err)
		return err
	}
	workerLog().Debugw("worker_voucher_sweep_done",
		"trigger", trigger,
		"deactivated", result.Deactivated,
		"activated", result.Activated,
	)
	return nil
}

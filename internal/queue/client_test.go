package queue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/constants"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderStatusChanged(OrderStatusChangedPayload{OrderID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.EnqueueVoucherSweep(VoucherSweepPayload{}); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("disabled sweep enqueue want ErrQueueDisabled got %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should be disabled")
	}
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client close failed: %v", err)
	}
}

func TestNewOrderStatusChangedTask(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	task, err := NewOrderStatusChangedTask(OrderStatusChangedPayload{
		OrderID:    9,
		FromStatus: constants.OrderStatusDraft,
		ToStatus:   constants.OrderStatusPending,
		Event:      "checkout",
		OccurredAt: now,
	})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOrderStatusChanged {
		t.Fatalf("task type want %s got %s", TaskOrderStatusChanged, task.Type())
	}
	var payload OrderStatusChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.OrderID != 9 || payload.ToStatus != constants.OrderStatusPending || !payload.OccurredAt.Equal(now) {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("default addr want 127.0.0.1:6379 got %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}

func TestBuildServerConfigUsesConfig(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{
		Host:        "queue-redis",
		Port:        6380,
		DB:          2,
		Concurrency: 4,
		Queues:      map[string]int{"critical": 6, DefaultQueue: 3},
	})
	if opt.Addr != "queue-redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 4 || cfg.Queues["critical"] != 6 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
	if cfg.ErrorHandler == nil || cfg.Logger == nil {
		t.Fatalf("error handler and logger should be set")
	}
}

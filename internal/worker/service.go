package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/queue"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

const (
	defaultSweepCron = "0 */5 * * * *"
	sweepTimeout     = 2 * time.Minute
	cronTrigger      = "cron"
)

// Service 异步队列服务（含优惠券巡检定时任务）
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *cron.Cron
	consumer  *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	scheduler, err := newSweepScheduler(cfg.Voucher.SweepCron, consumer)
	if err != nil {
		return nil, err
	}
	return &Service{
		name:      "worker",
		server:    server,
		mux:       mux,
		scheduler: scheduler,
		consumer:  consumer,
	}, nil
}

// newSweepScheduler 注册优惠券有效期巡检（秒级 cron 表达式）
func newSweepScheduler(expr string, consumer *Consumer) (*cron.Cron, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = defaultSweepCron
	}
	scheduler := cron.New(cron.WithSeconds())
	_, err := scheduler.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if err := consumer.runVoucherSweep(ctx, cronTrigger); err != nil {
			workerLog().Warnw("worker_voucher_sweep_cron_failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return scheduler, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.scheduler != nil {
		s.scheduler.Start()
		workerLog().Infow("worker_voucher_sweep_scheduled", "entries", len(s.scheduler.Entries()))
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.scheduler != nil {
		select {
		case <-s.scheduler.Stop().Done():
		case <-ctx.Done():
			workerLog().Warnw("worker_voucher_sweep_stop_timeout", "error", ctx.Err())
		}
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	return nil
}

package app

import (
	"context"
	"errors"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 可独立启停的后台服务
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 服务运行器
type Runner struct {
	services []Service
	hooks    []func() error
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// OnShutdown 注册在全部服务停止后执行的清理函数（关闭连接池等）
func (r *Runner) OnShutdown(fn func() error) *Runner {
	if r != nil && fn != nil {
		r.hooks = append(r.hooks, fn)
	}
	return r
}

// Names 返回已装配的服务名称
func (r *Runner) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.services))
	for _, svc := range r.services {
		if svc == nil {
			continue
		}
		names = append(names, svc.Name())
	}
	return names
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}

	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 并发启动全部服务，任一服务退出或 ctx 结束后按启动逆序停止
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, logger *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := r.startAll(ctx, logger)
	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case runErr = <-errCh:
	}
	cancel()

	r.stopAll(stopTimeout, logger)
	r.runHooks(logger)
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func (r *Runner) startAll(ctx context.Context, logger *zap.SugaredLogger) <-chan error {
	errCh := make(chan error, len(r.services))
	for _, svc := range r.services {
		go func(svc Service) {
			if svc == nil {
				errCh <- errors.New("service is nil")
				return
			}
			logger.Infow("service_start", "service", svc.Name())
			errCh <- svc.Start(ctx)
			logger.Infow("service_exit", "service", svc.Name())
		}(svc)
	}
	return errCh
}

func (r *Runner) stopAll(timeout time.Duration, logger *zap.SugaredLogger) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if svc == nil {
			continue
		}
		if err := svc.Stop(stopCtx); err != nil {
			logger.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}

func (r *Runner) runHooks(logger *zap.SugaredLogger) {
	for _, hook := range r.hooks {
		if err := hook(); err != nil {
			logger.Warnw("service_shutdown_hook_failed", "error", err)
		}
	}
}

package app

import (
	"errors"
	"time"

	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/provider"
	"github.com/cafe-next/internal/router"
	"github.com/cafe-next/internal/worker"
)

// BuildRunner 按运行模式装配 HTTP 与 Worker 服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if mode == ModeWorker && !cfg.Queue.Enabled {
		return nil, errors.New("worker mode requires queue.enabled")
	}

	container := provider.NewContainer(cfg)
	fail := func(err error) (*Runner, error) {
		_ = container.Close()
		return nil, err
	}

	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine, HTTPTimeouts{
			Read:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
			Write: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		}))
	}

	// 队列关闭时 all 模式仅启动 HTTP，状态历史与有效期巡检不可用
	if mode == ModeAll && !cfg.Queue.Enabled {
		logger.Warnw("app_worker_skipped", "reason", "queue_disabled")
	} else if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(cfg, consumer)
		if err != nil {
			return fail(err)
		}
		services = append(services, workerService)
	}

	if len(services) == 0 {
		return fail(errors.New("no services initialized (check mode and config)"))
	}

	return NewRunner(services...).OnShutdown(container.Close), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode, "services", runner.Names())
	return RunWithOptions(runner, opts)
}

package queue

import (
	"context"
	"errors"

	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/logger"

	"github.com/hibiken/asynq"
)

// DefaultQueue 默认队列名称
const DefaultQueue = constants.QueueDefault

const defaultConcurrency = 10

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// Client 队列客户端封装，未启用时为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueOrderStatusChanged 推送订单状态变更任务；队列关闭时静默跳过
func (c *Client) EnqueueOrderStatusChanged(payload OrderStatusChangedPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderStatusChangedTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, opts...)
}

// EnqueueVoucherSweep 推送优惠券巡检任务；已有待执行任务时视为成功
func (c *Client) EnqueueVoucherSweep(payload VoucherSweepPayload) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	task, err := NewVoucherSweepTask(payload)
	if err != nil {
		return err
	}
	if err := c.enqueue(task); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return err
	}
	return nil
}

func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	options := append([]asynq.Option{asynq.Queue(DefaultQueue)}, opts...)
	info, err := c.client.Enqueue(task, options...)
	if err != nil {
		return err
	}
	logger.Debugw("queue_task_enqueued", "type", task.Type(), "task_id", info.ID, "queue", info.Queue)
	return nil
}

// BuildServerConfig 生成队列服务配置，处理失败的任务记录 warn 日志
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := defaultConcurrency
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return redisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		Logger:      logger.Named("asynq"),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warnw("queue_task_failed",
				"type", task.Type(),
				"retried", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
	}
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	if cfg == nil {
		cfg = &config.QueueConfig{}
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

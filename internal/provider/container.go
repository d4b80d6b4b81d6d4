package provider

import (
	"errors"
	"time"

	"github.com/cafe-next/internal/cache"
	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/queue"
	"github.com/cafe-next/internal/repository"
	"github.com/cafe-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Locker      *cache.Locker

	// Repositories
	OrderRepo          repository.OrderRepository
	CatalogRepo        repository.CatalogRepository
	AddressRepo        repository.AddressRepository
	VoucherRepo        repository.VoucherRepository
	VoucherUsageRepo   repository.VoucherUsageRepository
	UserVoucherRepo    repository.UserVoucherRepository
	OrderStatusLogRepo repository.OrderStatusLogRepository

	// Services
	VoucherValidator    *service.VoucherValidator
	VoucherLedger       *service.VoucherLedger
	OrderService        *service.OrderService
	VoucherAdminService *service.VoucherAdminService
	VoucherSweeper      *service.VoucherSweeper
	OrderStatusRecorder *service.OrderStatusRecorder
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Locker:      cache.NewLocker(cache.Client()),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

// Close 释放队列客户端与 Redis 连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	return errors.Join(c.QueueClient.Close(), cache.Close())
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CatalogRepo = repository.NewCatalogRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.VoucherUsageRepo = repository.NewVoucherUsageRepository(db)
	c.UserVoucherRepo = repository.NewUserVoucherRepository(db)
	c.OrderStatusLogRepo = repository.NewOrderStatusLogRepository(db)
}

func (c *Container) initServices() {
	codeGen, err := service.NewSnowflakeCodeGenerator(c.Config.Order.SnowflakeNode, c.Config.Order.CodePrefix)
	if err != nil {
		logger.Errorw("provider_init_order_code_failed", "node", c.Config.Order.SnowflakeNode, "error", err)
		panic(err)
	}

	c.VoucherValidator = service.NewVoucherValidator(c.VoucherRepo, c.VoucherUsageRepo, c.UserVoucherRepo)
	c.VoucherLedger = service.NewVoucherLedger(c.VoucherRepo, c.VoucherUsageRepo, c.UserVoucherRepo)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.CatalogRepo,
		c.AddressRepo,
		c.VoucherRepo,
		c.VoucherValidator,
		c.VoucherLedger,
		c.QueueClient,
		codeGen,
		c.Config.Order.ShippingFeeDecimal(),
	)
	c.VoucherAdminService = service.NewVoucherAdminService(c.VoucherRepo, c.VoucherUsageRepo, c.UserVoucherRepo)
	lockTTL := time.Duration(c.Config.Voucher.SweepLockSeconds) * time.Second
	c.VoucherSweeper = service.NewVoucherSweeper(c.VoucherRepo, c.Locker, c.QueueClient, lockTTL)
	c.OrderStatusRecorder = service.NewOrderStatusRecorder(c.OrderStatusLogRepo, nil)
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/queue"
	"github.com/cafe-next/internal/repository"
)

// SweepLocker 巡检互斥锁
type SweepLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// VoucherSweepResult 巡检结果
type VoucherSweepResult struct {
	Deactivated int64 `json:"deactivated"`
	Activated   int64 `json:"activated"`
}

// VoucherSweeper 按有效期切换自动管理优惠券的启用状态
type VoucherSweeper struct {
	voucherRepo repository.VoucherRepository
	locker      SweepLocker
	queueClient *queue.Client
	lockTTL     time.Duration
	now         func() time.Time
}

// NewVoucherSweeper 创建优惠券巡检器；locker 为空时不加锁
func NewVoucherSweeper(voucherRepo repository.VoucherRepository, locker SweepLocker, queueClient *queue.Client, lockTTL time.Duration) *VoucherSweeper {
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &VoucherSweeper{
		voucherRepo: voucherRepo,
		locker:      locker,
		queueClient: queueClient,
		lockTTL:     lockTTL,
		now:         time.Now,
	}
}

// Sweep 执行一次巡检；未抢到锁时返回 ErrSweepLockNotHeld
func (s *VoucherSweeper) Sweep(ctx context.Context) (*VoucherSweepResult, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, constants.VoucherSweepLockKey, s.lockTTL)
		if err != nil {
			return nil, errors.Join(ErrSweepLockNotHeld, err)
		}
		defer func() {
			if releaseErr := release(context.Background()); releaseErr != nil {
				logger.Named("voucher_sweep").Warnw("voucher_sweep_unlock_failed", "error", releaseErr)
			}
		}()
	}

	now := s.now()
	result := &VoucherSweepResult{}
	deactivated, err := s.voucherRepo.DeactivateOutOfWindow(now)
	if err != nil {
		return nil, err
	}
	result.Deactivated = deactivated
	activated, err := s.voucherRepo.ActivateInWindow(now)
	if err != nil {
		return result, err
	}
	result.Activated = activated

	if deactivated > 0 || activated > 0 {
		logger.Named("voucher_sweep").Infow("voucher_sweep_applied",
			"deactivated", deactivated,
			"activated", activated,
		)
	}
	return result, nil
}

// RequestSweep 投递一次立即巡检任务
func (s *VoucherSweeper) RequestSweep(requestedBy string) error {
	if err := s.queueClient.EnqueueVoucherSweep(queue.VoucherSweepPayload{RequestedBy: requestedBy}); err != nil {
		if errors.Is(err, queue.ErrQueueDisabled) {
			return ErrQueueUnavailable
		}
		return err
	}
	return nil
}

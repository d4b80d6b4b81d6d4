package service

import (
	"time"

	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"

	"gorm.io/gorm"
)

// usageTracker 单张优惠券的用户维度用量记录
type usageTracker interface {
	// record 记录一次使用，返回 false 表示用户维度额度不可用
	record(voucher *models.Voucher, userID uint, usedAt time.Time) (bool, error)
	// revert 撤销一次使用
	revert(voucher *models.Voucher, userID uint) error
}

// publicUsageTracker 公开券：按用户累计 VoucherUsage
type publicUsageTracker struct {
	usageRepo repository.VoucherUsageRepository
}

func (t publicUsageTracker) record(voucher *models.Voucher, userID uint, usedAt time.Time) (bool, error) {
	if userID == 0 {
		return true, nil
	}
	return t.usageRepo.IncrementWithinLimit(voucher.ID, userID, voucher.UsageLimitPerUser, usedAt)
}

func (t publicUsageTracker) revert(voucher *models.Voucher, userID uint) error {
	if userID == 0 {
		return nil
	}
	return t.usageRepo.Decrement(voucher.ID, userID)
}

// assignedUsageTracker 私有券：标记 UserVoucher 已使用
type assignedUsageTracker struct {
	userVoucherRepo repository.UserVoucherRepository
}

func (t assignedUsageTracker) record(voucher *models.Voucher, userID uint, usedAt time.Time) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return t.userVoucherRepo.MarkUsed(userID, voucher.ID, usedAt)
}

func (t assignedUsageTracker) revert(voucher *models.Voucher, userID uint) error {
	if userID == 0 {
		return nil
	}
	_, err := t.userVoucherRepo.ResetUsed(userID, voucher.ID)
	return err
}

// VoucherLedger 优惠券用量账本：全局计数与用户维度记录同步增减
type VoucherLedger struct {
	voucherRepo     repository.VoucherRepository
	usageRepo       repository.VoucherUsageRepository
	userVoucherRepo repository.UserVoucherRepository
	now             func() time.Time
}

// NewVoucherLedger 创建优惠券账本
func NewVoucherLedger(
	voucherRepo repository.VoucherRepository,
	usageRepo repository.VoucherUsageRepository,
	userVoucherRepo repository.UserVoucherRepository,
) *VoucherLedger {
	return &VoucherLedger{
		voucherRepo:     voucherRepo,
		usageRepo:       usageRepo,
		userVoucherRepo: userVoucherRepo,
		now:             time.Now,
	}
}

// WithTx 绑定事务
func (l *VoucherLedger) WithTx(tx *gorm.DB) *VoucherLedger {
	if tx == nil {
		return l
	}
	return &VoucherLedger{
		voucherRepo:     l.voucherRepo.WithTx(tx),
		usageRepo:       l.usageRepo.WithTx(tx),
		userVoucherRepo: l.userVoucherRepo.WithTx(tx),
		now:             l.now,
	}
}

func (l *VoucherLedger) trackerFor(voucher *models.Voucher) usageTracker {
	if voucher.IsPublic {
		return publicUsageTracker{usageRepo: l.usageRepo}
	}
	return assignedUsageTracker{userVoucherRepo: l.userVoucherRepo}
}

// ApplyVoucher 占用一次优惠券额度；额度不可用时返回 ErrLedgerExhausted
func (l *VoucherLedger) ApplyVoucher(voucher *models.Voucher, userID uint) error {
	if voucher == nil {
		return ErrVoucherNotFound
	}
	ok, err := l.voucherRepo.TryIncrementUsage(voucher.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLedgerExhausted
	}

	recorded, err := l.trackerFor(voucher).record(voucher, userID, l.now())
	if err != nil || !recorded {
		// 用户维度未记录成功时归还全局计数
		if _, undoErr := l.voucherRepo.DecrementUsage(voucher.ID); undoErr != nil && err == nil {
			err = undoErr
		}
		if err != nil {
			return err
		}
		return ErrLedgerExhausted
	}
	return nil
}

// RollbackVoucherUsage 归还一次优惠券额度
func (l *VoucherLedger) RollbackVoucherUsage(voucher *models.Voucher, userID uint) error {
	if voucher == nil {
		return ErrVoucherNotFound
	}
	if _, err := l.voucherRepo.DecrementUsage(voucher.ID); err != nil {
		return err
	}
	return l.trackerFor(voucher).revert(voucher, userID)
}

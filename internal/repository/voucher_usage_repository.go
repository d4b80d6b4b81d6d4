package repository

import (
	"errors"
	"time"

	"github.com/cafe-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoucherUsageRepository 公开券用户计数数据访问接口
type VoucherUsageRepository interface {
	Get(voucherID, userID uint) (*models.VoucherUsage, error)
	IncrementWithinLimit(voucherID, userID uint, limit *int, usedAt time.Time) (bool, error)
	Decrement(voucherID, userID uint) error
	ListByVoucher(voucherID uint) ([]models.VoucherUsage, error)
	WithTx(tx *gorm.DB) *GormVoucherUsageRepository
}

// GormVoucherUsageRepository GORM 实现
type GormVoucherUsageRepository struct {
	db *gorm.DB
}

// NewVoucherUsageRepository 创建公开券计数仓库
func NewVoucherUsageRepository(db *gorm.DB) *GormVoucherUsageRepository {
	return &GormVoucherUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherUsageRepository) WithTx(tx *gorm.DB) *GormVoucherUsageRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherUsageRepository{db: tx}
}

// Get 获取用户计数
func (r *GormVoucherUsageRepository) Get(voucherID, userID uint) (*models.VoucherUsage, error) {
	var usage models.VoucherUsage
	if err := r.db.Where("voucher_id = ? AND user_id = ?", voucherID, userID).First(&usage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

// IncrementWithinLimit 递增用户计数；limit 非空时仅在未达上限时成功
func (r *GormVoucherUsageRepository) IncrementWithinLimit(voucherID, userID uint, limit *int, usedAt time.Time) (bool, error) {
	if limit != nil && *limit <= 0 {
		return false, nil
	}
	// 并发首次使用时插入冲突，重试一次条件更新
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := r.incrementExisting(voucherID, userID, limit, usedAt)
		if err != nil || ok {
			return ok, err
		}
		existing, err := r.Get(voucherID, userID)
		if err != nil {
			return false, err
		}
		if existing != nil {
			// 记录存在但条件更新未命中：已达上限
			return false, nil
		}
		usage := models.VoucherUsage{
			VoucherID:  voucherID,
			UserID:     userID,
			UsageCount: 1,
			LastUsedAt: usedAt,
		}
		result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&usage)
		if result.Error != nil {
			return false, result.Error
		}
		if result.RowsAffected == 1 {
			return true, nil
		}
	}
	return false, nil
}

func (r *GormVoucherUsageRepository) incrementExisting(voucherID, userID uint, limit *int, usedAt time.Time) (bool, error) {
	query := r.db.Model(&models.VoucherUsage{}).
		Where("voucher_id = ? AND user_id = ?", voucherID, userID)
	if limit != nil {
		query = query.Where("usage_count < ?", *limit)
	}
	result := query.Updates(map[string]interface{}{
		"usage_count":  gorm.Expr("usage_count + ?", 1),
		"last_used_at": usedAt,
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Decrement 递减用户计数，归零时删除记录
func (r *GormVoucherUsageRepository) Decrement(voucherID, userID uint) error {
	result := r.db.Model(&models.VoucherUsage{}).
		Where("voucher_id = ? AND user_id = ? AND usage_count > ?", voucherID, userID, 1).
		UpdateColumn("usage_count", gorm.Expr("usage_count - ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return r.db.Where("voucher_id = ? AND user_id = ? AND usage_count <= ?", voucherID, userID, 1).
		Delete(&models.VoucherUsage{}).Error
}

// ListByVoucher 获取优惠券的用户计数列表
func (r *GormVoucherUsageRepository) ListByVoucher(voucherID uint) ([]models.VoucherUsage, error) {
	var usages []models.VoucherUsage
	if err := r.db.Where("voucher_id = ?", voucherID).Order("id asc").Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}

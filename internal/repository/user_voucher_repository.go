package repository

import (
	"errors"
	"time"

	"github.com/cafe-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserVoucherRepository 私有券分配数据访问接口
type UserVoucherRepository interface {
	Get(userID, voucherID uint) (*models.UserVoucher, error)
	Assign(assignment *models.UserVoucher) (bool, error)
	MarkUsed(userID, voucherID uint, usedAt time.Time) (bool, error)
	ResetUsed(userID, voucherID uint) (bool, error)
	ListUnusedByUser(userID uint) ([]models.UserVoucher, error)
	ListByVoucher(voucherID uint) ([]models.UserVoucher, error)
	WithTx(tx *gorm.DB) *GormUserVoucherRepository
}

// GormUserVoucherRepository GORM 实现
type GormUserVoucherRepository struct {
	db *gorm.DB
}

// NewUserVoucherRepository 创建私有券分配仓库
func NewUserVoucherRepository(db *gorm.DB) *GormUserVoucherRepository {
	return &GormUserVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserVoucherRepository) WithTx(tx *gorm.DB) *GormUserVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormUserVoucherRepository{db: tx}
}

// Get 获取分配记录
func (r *GormUserVoucherRepository) Get(userID, voucherID uint) (*models.UserVoucher, error) {
	var assignment models.UserVoucher
	if err := r.db.Where("user_id = ? AND voucher_id = ?", userID, voucherID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

// Assign 创建分配记录，已存在时不变更并返回 false
func (r *GormUserVoucherRepository) Assign(assignment *models.UserVoucher) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(assignment)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkUsed 将未使用的分配标记为已使用
func (r *GormUserVoucherRepository) MarkUsed(userID, voucherID uint, usedAt time.Time) (bool, error) {
	result := r.db.Model(&models.UserVoucher{}).
		Where("user_id = ? AND voucher_id = ? AND is_used = ?", userID, voucherID, false).
		Updates(map[string]interface{}{
			"is_used": true,
			"used_at": usedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ResetUsed 将已使用的分配恢复为未使用
func (r *GormUserVoucherRepository) ResetUsed(userID, voucherID uint) (bool, error) {
	result := r.db.Model(&models.UserVoucher{}).
		Where("user_id = ? AND voucher_id = ? AND is_used = ?", userID, voucherID, true).
		Updates(map[string]interface{}{
			"is_used": false,
			"used_at": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListUnusedByUser 获取用户未使用的分配（含优惠券）
func (r *GormUserVoucherRepository) ListUnusedByUser(userID uint) ([]models.UserVoucher, error) {
	var assignments []models.UserVoucher
	if err := r.db.Preload("Voucher").
		Where("user_id = ? AND is_used = ?", userID, false).
		Order("assigned_at desc").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListByVoucher 获取优惠券的分配列表
func (r *GormUserVoucherRepository) ListByVoucher(voucherID uint) ([]models.UserVoucher, error) {
	var assignments []models.UserVoucher
	if err := r.db.Where("voucher_id = ?", voucherID).Order("id asc").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

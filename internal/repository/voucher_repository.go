package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/cafe-next/internal/models"

	"gorm.io/gorm"
)

// VoucherRepository 优惠券数据访问接口
type VoucherRepository interface {
	GetByID(id uint) (*models.Voucher, error)
	GetByCode(code string) (*models.Voucher, error)
	ListByIDs(ids []uint) ([]models.Voucher, error)
	Create(voucher *models.Voucher) error
	SetActive(id uint, active bool) (bool, error)
	List(filter VoucherListFilter) ([]models.Voucher, int64, error)
	ListUsable(now time.Time) ([]models.Voucher, error)
	TryIncrementUsage(id uint) (bool, error)
	DecrementUsage(id uint) (bool, error)
	DeactivateOutOfWindow(now time.Time) (int64, error)
	ActivateInWindow(now time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormVoucherRepository
}

// GormVoucherRepository GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建优惠券仓库
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) *GormVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// GetByID 根据ID获取优惠券
func (r *GormVoucherRepository) GetByID(id uint) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByCode 根据优惠码获取优惠券（大小写不敏感）
func (r *GormVoucherRepository) GetByCode(code string) (*models.Voucher, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Where(upperCodeExpr("code"), code).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// ListByIDs 批量获取优惠券
func (r *GormVoucherRepository) ListByIDs(ids []uint) ([]models.Voucher, error) {
	if len(ids) == 0 {
		return []models.Voucher{}, nil
	}
	var vouchers []models.Voucher
	if err := r.db.Where("id IN ?", ids).Find(&vouchers).Error; err != nil {
		return nil, err
	}
	return vouchers, nil
}

// Create 创建优惠券
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	return r.db.Create(voucher).Error
}

// SetActive 手动设置启用状态并退出自动管理
func (r *GormVoucherRepository) SetActive(id uint, active bool) (bool, error) {
	result := r.db.Model(&models.Voucher{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":    active,
			"auto_managed": false,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 获取优惠券列表
func (r *GormVoucherRepository) List(filter VoucherListFilter) ([]models.Voucher, int64, error) {
	query := r.db.Model(&models.Voucher{})

	if code := strings.TrimSpace(filter.Code); code != "" {
		condition, count := buildLikeCondition(r.db, "code", "description")
		query = query.Where(condition, repeatLikeArgs("%"+code+"%", count)...)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsPublic != nil {
		query = query.Where("is_public = ?", *filter.IsPublic)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var vouchers []models.Voucher
	if err := query.Order("id desc").Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}

// ListUsable 获取当前启用且处于有效期内、仍有剩余额度的优惠券
func (r *GormVoucherRepository) ListUsable(now time.Time) ([]models.Voucher, error) {
	var vouchers []models.Voucher
	if err := r.db.
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Where("usage_limit IS NULL OR current_usage_count < usage_limit").
		Order("end_date asc, id asc").
		Find(&vouchers).Error; err != nil {
		return nil, err
	}
	return vouchers, nil
}

// TryIncrementUsage 条件递增使用次数：仅在启用且未达总上限时成功
func (r *GormVoucherRepository) TryIncrementUsage(id uint) (bool, error) {
	result := r.db.Model(&models.Voucher{}).
		Where("id = ? AND is_active = ?", id, true).
		Where("usage_limit IS NULL OR current_usage_count < usage_limit").
		UpdateColumn("current_usage_count", gorm.Expr("current_usage_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DecrementUsage 递减使用次数（不低于 0）
func (r *GormVoucherRepository) DecrementUsage(id uint) (bool, error) {
	result := r.db.Model(&models.Voucher{}).
		Where("id = ? AND current_usage_count > ?", id, 0).
		UpdateColumn("current_usage_count", gorm.Expr("current_usage_count - ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeactivateOutOfWindow 停用已过期或尚未生效的自动管理优惠券
func (r *GormVoucherRepository) DeactivateOutOfWindow(now time.Time) (int64, error) {
	result := r.db.Model(&models.Voucher{}).
		Where("is_active = ? AND auto_managed = ?", true, true).
		Where("end_date < ? OR start_date > ?", now, now).
		UpdateColumn("is_active", false)
	return result.RowsAffected, result.Error
}

// ActivateInWindow 启用处于有效期内的自动管理优惠券
func (r *GormVoucherRepository) ActivateInWindow(now time.Time) (int64, error) {
	result := r.db.Model(&models.Voucher{}).
		Where("is_active = ? AND auto_managed = ?", false, true).
		Where("start_date <= ? AND end_date >= ?", now, now).
		UpdateColumn("is_active", true)
	return result.RowsAffected, result.Error
}

package repository

import (
	"github.com/cafe-next/internal/models"

	"gorm.io/gorm"
)

// OrderStatusLogRepository 订单状态记录数据访问接口
type OrderStatusLogRepository interface {
	Create(log *models.OrderStatusLog) error
	List(filter OrderStatusLogListFilter) ([]models.OrderStatusLog, int64, error)
}

// GormOrderStatusLogRepository GORM 实现
type GormOrderStatusLogRepository struct {
	db *gorm.DB
}

// NewOrderStatusLogRepository 创建订单状态记录仓库
func NewOrderStatusLogRepository(db *gorm.DB) *GormOrderStatusLogRepository {
	return &GormOrderStatusLogRepository{db: db}
}

// Create 写入状态记录
func (r *GormOrderStatusLogRepository) Create(log *models.OrderStatusLog) error {
	return r.db.Create(log).Error
}

// List 获取状态记录
func (r *GormOrderStatusLogRepository) List(filter OrderStatusLogListFilter) ([]models.OrderStatusLog, int64, error) {
	query := r.db.Model(&models.OrderStatusLog{})
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.OrderStatusLog
	if err := query.Order("occurred_at asc, id asc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

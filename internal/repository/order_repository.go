package repository

import (
	"errors"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateGuarded(order *models.Order, expected constants.OrderStatus) (bool, error)
	CreateItem(item *models.OrderItem) error
	ReplaceItem(item *models.OrderItem) error
	DeleteItem(orderID, itemID uint) error
	CreateVoucherSnapshots(snapshots []models.OrderVoucher) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withAggregate(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.Options", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Vouchers", func(db *gorm.DB) *gorm.DB { return db.Order("apply_order asc") })
}

// Create 创建订单（订单项、选项快照与优惠券快照随聚合一并写入）
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withAggregate(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.withAggregate(r.db).Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser 用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", filter.UserID)
	return r.list(query, filter)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	return r.list(query, filter)
}

func (r *GormOrderRepository) list(query *gorm.DB, filter OrderListFilter) ([]models.Order, int64, error) {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := r.withAggregate(query).Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// orderMutableColumns 订单主表可变字段
var orderMutableColumns = []string{
	"status",
	"subtotal",
	"discount_amount",
	"shipping_fee",
	"final_amount",
	"voucher_id",
	"recipient_name",
	"shipping_address",
	"phone_number",
	"note",
	"cancel_reason",
	"paid_at",
	"cancelled_at",
	"updated_at",
}

// UpdateGuarded 保存订单主表字段，仅当库中状态仍为 expected 时生效
func (r *GormOrderRepository) UpdateGuarded(order *models.Order, expected constants.OrderStatus) (bool, error) {
	result := r.db.Model(order).
		Where("status = ?", expected).
		Select(orderMutableColumns).
		Omit(clause.Associations).
		Updates(order)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateItem 创建订单项及选项快照
func (r *GormOrderRepository) CreateItem(item *models.OrderItem) error {
	return r.db.Create(item).Error
}

// ReplaceItem 保存订单项并整体替换选项快照
func (r *GormOrderRepository) ReplaceItem(item *models.OrderItem) error {
	if err := r.db.Where("order_item_id = ?", item.ID).Delete(&models.OrderItemOption{}).Error; err != nil {
		return err
	}
	for i := range item.Options {
		item.Options[i].ID = 0
		item.Options[i].OrderItemID = item.ID
	}
	if len(item.Options) > 0 {
		if err := r.db.Create(&item.Options).Error; err != nil {
			return err
		}
	}
	return r.db.Omit(clause.Associations).Save(item).Error
}

// DeleteItem 删除订单项及其选项快照
func (r *GormOrderRepository) DeleteItem(orderID, itemID uint) error {
	if err := r.db.Where("order_item_id = ?", itemID).Delete(&models.OrderItemOption{}).Error; err != nil {
		return err
	}
	return r.db.Where("id = ? AND order_id = ?", itemID, orderID).Delete(&models.OrderItem{}).Error
}

// CreateVoucherSnapshots 写入优惠券应用快照
func (r *GormOrderRepository) CreateVoucherSnapshots(snapshots []models.OrderVoucher) error {
	if len(snapshots) == 0 {
		return nil
	}
	return r.db.Create(&snapshots).Error
}

// Delete 删除订单聚合
func (r *GormOrderRepository) Delete(id uint) error {
	itemIDs := r.db.Model(&models.OrderItem{}).Select("id").Where("order_id = ?", id)
	if err := r.db.Where("order_item_id IN (?)", itemIDs).Delete(&models.OrderItemOption{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("order_id = ?", id).Delete(&models.OrderVoucher{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Order{}, id).Error
}

package repository

import (
	"errors"

	"github.com/cafe-next/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository 商品目录只读访问接口
type CatalogRepository interface {
	GetProductWithOptions(id uint) (*models.Product, error)
	ListProductsWithOptions(ids []uint) ([]models.Product, error)
	WithTx(tx *gorm.DB) *GormCatalogRepository
}

// GormCatalogRepository GORM 实现
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建目录仓库
func NewCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCatalogRepository) WithTx(tx *gorm.DB) *GormCatalogRepository {
	if tx == nil {
		return r
	}
	return &GormCatalogRepository{db: tx}
}

func (r *GormCatalogRepository) withOptions(query *gorm.DB) *gorm.DB {
	return query.
		Preload("OptionGroups", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") }).
		Preload("OptionGroups.Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") })
}

// GetProductWithOptions 获取上架商品及其选项配置（按展示顺序）
func (r *GormCatalogRepository) GetProductWithOptions(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.withOptions(r.db).Where("id = ? AND is_active = ?", id, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListProductsWithOptions 批量获取上架商品及其选项配置
func (r *GormCatalogRepository) ListProductsWithOptions(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.withOptions(r.db).Where("id IN ? AND is_active = ?", ids, true).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

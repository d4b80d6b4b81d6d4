package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（目录数据，订单侧只读）
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                    // 主键
	Name        string         `gorm:"size:200;not null" json:"name"`                           // 名称
	Description string         `gorm:"size:1000" json:"description"`                            // 描述
	BasePrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"` // 基础价格
	ImageURL    string         `gorm:"size:500" json:"image_url"`                               // 图片地址
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`                     // 是否上架
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                       // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                              // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间

	// 关联
	OptionGroups []ProductOptionGroup `gorm:"foreignKey:ProductID" json:"option_groups,omitempty"` // 选项组（按展示顺序）
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// ProductOptionGroup 商品选项组
type ProductOptionGroup struct {
	ID                    uint   `gorm:"primarykey" json:"id"`                                 // 主键
	ProductID             uint   `gorm:"index;not null" json:"product_id"`                     // 商品ID
	Name                  string `gorm:"size:100;not null" json:"name"`                        // 名称（如 尺寸、甜度）
	IsRequired            bool   `gorm:"not null;default:false" json:"is_required"`            // 是否必选
	AllowMultiple         bool   `gorm:"not null;default:false" json:"allow_multiple"`         // 是否允许多选
	DependsOnOptionItemID *uint  `gorm:"index" json:"depends_on_option_item_id,omitempty"`     // 依赖的选项ID（未选中时跳过本组）
	SortOrder             int    `gorm:"not null;default:0" json:"sort_order"`                 // 展示顺序

	Items []ProductOptionItem `gorm:"foreignKey:OptionGroupID" json:"items,omitempty"` // 选项
}

// TableName 指定表名
func (ProductOptionGroup) TableName() string {
	return "product_option_groups"
}

// ProductOptionItem 商品选项
type ProductOptionItem struct {
	ID              uint   `gorm:"primarykey" json:"id"`                                          // 主键
	OptionGroupID   uint   `gorm:"index;not null" json:"option_group_id"`                         // 选项组ID
	Name            string `gorm:"size:100;not null" json:"name"`                                 // 名称
	PriceAdjustment Money  `gorm:"type:decimal(20,2);not null;default:0" json:"price_adjustment"` // 加价
	IsDefault       bool   `gorm:"not null;default:false" json:"is_default"`                      // 是否默认
	SortOrder       int    `gorm:"not null;default:0" json:"sort_order"`                          // 展示顺序
}

// TableName 指定表名
func (ProductOptionItem) TableName() string {
	return "product_option_items"
}

package models

import "time"

// OrderItem 订单项表（价格与商品信息均为下单时快照）
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                      // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`                            // 订单ID
	ProductID   uint      `gorm:"index;not null" json:"product_id"`                          // 商品ID（仅引用）
	Quantity    int       `gorm:"not null" json:"quantity"`                                  // 数量
	ProductName string    `gorm:"size:200;not null" json:"product_name"`                     // 商品名称快照
	ImageURL    string    `gorm:"size:500" json:"image_url"`                                 // 商品图片快照
	BasePrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"`   // 基础价格快照
	OptionPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"option_price"` // 选项加价合计
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`   // 单价
	TotalPrice  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`  // 小计
	Note        string    `gorm:"size:500" json:"note"`                                      // 备注
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`                                   // 更新时间

	Options []OrderItemOption `gorm:"foreignKey:OrderItemID" json:"options"` // 选项快照
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// OptionItemIDs 返回该订单项所选选项ID
func (i *OrderItem) OptionItemIDs() []uint {
	ids := make([]uint, 0, len(i.Options))
	for _, opt := range i.Options {
		ids = append(ids, opt.OptionItemID)
	}
	return ids
}

// OrderItemOption 订单项选项快照
type OrderItemOption struct {
	ID              uint   `gorm:"primarykey" json:"id"`                                          // 主键
	OrderItemID     uint   `gorm:"index;not null" json:"order_item_id"`                           // 订单项ID
	OptionGroupID   uint   `gorm:"not null" json:"option_group_id"`                               // 选项组ID（仅引用）
	OptionItemID    uint   `gorm:"not null" json:"option_item_id"`                                // 选项ID（仅引用）
	GroupName       string `gorm:"size:100;not null" json:"group_name"`                           // 选项组名称快照
	ItemName        string `gorm:"size:100;not null" json:"item_name"`                            // 选项名称快照
	PriceAdjustment Money  `gorm:"type:decimal(20,2);not null;default:0" json:"price_adjustment"` // 加价快照
}

// TableName 指定表名
func (OrderItemOption) TableName() string {
	return "order_item_options"
}

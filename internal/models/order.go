package models

import (
	"time"

	"github.com/cafe-next/internal/constants"
)

// Order 订单表
type Order struct {
	ID              uint                  `gorm:"primarykey" json:"id"`                                          // 主键
	Code            string                `gorm:"uniqueIndex;size:64;not null" json:"code"`                      // 订单编号
	Status          constants.OrderStatus `gorm:"index;not null;default:0" json:"status"`                        // 订单状态
	UserID          uint                  `gorm:"index;not null;default:0" json:"user_id,omitempty"`             // 用户ID（游客订单为 0）
	Subtotal        Money                 `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`         // 商品小计
	DiscountAmount  Money                 `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 优惠金额
	ShippingFee     Money                 `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"`     // 配送费
	FinalAmount     Money                 `gorm:"type:decimal(20,2);not null;default:0" json:"final_amount"`     // 应付金额
	VoucherID       *uint                 `gorm:"index" json:"voucher_id,omitempty"`                             // 主优惠券ID（首个成功应用）
	RecipientName   string                `gorm:"size:100" json:"recipient_name"`                                // 收件人快照
	ShippingAddress string                `gorm:"size:500" json:"shipping_address"`                              // 配送地址快照
	PhoneNumber     string                `gorm:"size:32" json:"phone_number"`                                   // 联系电话快照
	Note            string                `gorm:"size:500" json:"note"`                                          // 订单备注
	CancelReason    string                `gorm:"size:500" json:"cancel_reason,omitempty"`                       // 取消原因
	PaidAt          *time.Time            `gorm:"index" json:"paid_at"`                                          // 支付时间
	CancelledAt     *time.Time            `gorm:"index" json:"cancelled_at"`                                     // 取消时间
	CreatedAt       time.Time             `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time             `gorm:"index" json:"updated_at"`                                       // 更新时间

	Items    []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`    // 订单项
	Vouchers []OrderVoucher `gorm:"foreignKey:OrderID" json:"vouchers"` // 已应用优惠券快照
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// AppliedVoucherIDs 返回订单已应用的优惠券ID（去重，保持应用顺序）
func (o *Order) AppliedVoucherIDs() []uint {
	seen := make(map[uint]struct{}, len(o.Vouchers)+1)
	ids := make([]uint, 0, len(o.Vouchers)+1)
	for _, item := range o.Vouchers {
		if _, ok := seen[item.VoucherID]; ok {
			continue
		}
		seen[item.VoucherID] = struct{}{}
		ids = append(ids, item.VoucherID)
	}
	// 兼容仅记录主优惠券的历史订单
	if o.VoucherID != nil {
		if _, ok := seen[*o.VoucherID]; !ok {
			ids = append(ids, *o.VoucherID)
		}
	}
	return ids
}

package models

import "time"

// OrderVoucher 订单优惠券应用快照（写入后不再修改）
type OrderVoucher struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                               // 订单ID
	VoucherID      uint      `gorm:"index;not null" json:"voucher_id"`                             // 优惠券ID
	Code           string    `gorm:"size:64;not null" json:"code"`                                 // 优惠码快照
	DiscountType   string    `gorm:"size:32;not null" json:"discount_type"`                        // 优惠类型快照
	DiscountValue  Money     `gorm:"type:decimal(20,2);not null" json:"discount_value"`            // 优惠数值快照
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 本次抵扣金额
	ApplyOrder     int       `gorm:"not null" json:"apply_order"`                                  // 应用顺序（从 1 开始）
	AppliedAt      time.Time `gorm:"not null" json:"applied_at"`                                   // 应用时间
}

// TableName 指定表名
func (OrderVoucher) TableName() string {
	return "order_vouchers"
}

package models

import "time"

// VoucherUsage 公开券的用户使用计数
type VoucherUsage struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                         // 主键
	VoucherID  uint      `gorm:"uniqueIndex:idx_voucher_usage_user;not null" json:"voucher_id"` // 优惠券ID
	UserID     uint      `gorm:"uniqueIndex:idx_voucher_usage_user;not null" json:"user_id"`    // 用户ID
	UsageCount int       `gorm:"not null;default:0" json:"usage_count"`                        // 使用次数
	LastUsedAt time.Time `json:"last_used_at"`                                                 // 最近使用时间
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                                   // 更新时间
}

// TableName 指定表名
func (VoucherUsage) TableName() string {
	return "voucher_usages"
}

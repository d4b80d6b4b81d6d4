package models

import (
	"time"

	"github.com/cafe-next/internal/constants"
)

// Voucher 优惠券
type Voucher struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                              // 主键
	Code              string    `gorm:"uniqueIndex;size:64;not null" json:"code"`                          // 优惠码（统一大写）
	Description       string    `gorm:"size:500" json:"description"`                                       // 描述
	DiscountType      string    `gorm:"size:32;not null" json:"discount_type"`                             // 优惠类型（fixed_amount/percentage）
	DiscountValue     Money     `gorm:"type:decimal(20,2);not null" json:"discount_value"`                 // 数值（固定金额或百分比）
	MinOrderValue     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_value"`      // 使用门槛（0 表示不限制）
	MaxDiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount_amount"`  // 最大优惠金额（0 表示不限制）
	StartDate         time.Time `gorm:"index;not null" json:"start_date"`                                  // 生效时间
	EndDate           time.Time `gorm:"index;not null" json:"end_date"`                                    // 失效时间
	UsageLimit        *int      `json:"usage_limit"`                                                       // 总使用上限（空表示不限制）
	UsageLimitPerUser *int      `json:"usage_limit_per_user"`                                              // 每人使用上限（空表示不限制，仅公开券）
	CurrentUsageCount int       `gorm:"not null;default:0" json:"current_usage_count"`                     // 已使用次数
	IsActive          bool      `gorm:"index;not null" json:"is_active"`                                   // 是否启用
	IsPublic          bool      `gorm:"not null" json:"is_public"`                                         // 是否公开券（否则需分配）
	AutoManaged       bool      `gorm:"not null" json:"auto_managed"`                                      // 是否由定时任务按有效期切换启用状态
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt         time.Time `gorm:"index" json:"updated_at"`                                           // 更新时间
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "vouchers"
}

// IsPercentage 是否百分比券
func (v *Voucher) IsPercentage() bool {
	return v.DiscountType == constants.DiscountTypePercentage
}

// RemainingUsage 剩余可用次数，-1 表示不限制
func (v *Voucher) RemainingUsage() int {
	if v.UsageLimit == nil {
		return -1
	}
	remaining := *v.UsageLimit - v.CurrentUsageCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// InWindow 判断时间是否处于有效期内（闭区间）
func (v *Voucher) InWindow(now time.Time) bool {
	return !now.Before(v.StartDate) && !now.After(v.EndDate)
}

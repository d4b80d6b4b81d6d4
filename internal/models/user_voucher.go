package models

import "time"

// UserVoucher 私有券的用户分配记录
type UserVoucher struct {
	ID         uint       `gorm:"primarykey" json:"id"`                                         // 主键
	UserID     uint       `gorm:"uniqueIndex:idx_user_voucher_pair;not null" json:"user_id"`    // 用户ID
	VoucherID  uint       `gorm:"uniqueIndex:idx_user_voucher_pair;not null" json:"voucher_id"` // 优惠券ID
	IsUsed     bool       `gorm:"index;not null;default:false" json:"is_used"`                  // 是否已使用
	AssignedAt time.Time  `gorm:"not null" json:"assigned_at"`                                  // 分配时间
	UsedAt     *time.Time `json:"used_at"`                                                      // 使用时间

	Voucher *Voucher `gorm:"foreignKey:VoucherID" json:"voucher,omitempty"` // 关联优惠券
}

// TableName 指定表名
func (UserVoucher) TableName() string {
	return "user_vouchers"
}

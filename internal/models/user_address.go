package models

import "time"

// UserAddress 用户收货地址（订单侧只读）
type UserAddress struct {
	ID            uint      `gorm:"primarykey" json:"id"`                      // 主键
	UserID        uint      `gorm:"index;not null" json:"user_id"`             // 用户ID
	RecipientName string    `gorm:"size:100;not null" json:"recipient_name"`   // 收件人
	PhoneNumber   string    `gorm:"size:32;not null" json:"phone_number"`      // 联系电话
	AddressLine   string    `gorm:"size:500;not null" json:"address_line"`     // 详细地址
	IsDefault     bool      `gorm:"not null;default:false" json:"is_default"`  // 是否默认地址
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                // 更新时间
}

// TableName 指定表名
func (UserAddress) TableName() string {
	return "user_addresses"
}

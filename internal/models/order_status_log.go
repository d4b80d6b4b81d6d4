package models

import (
	"time"

	"github.com/cafe-next/internal/constants"
)

// OrderStatusLog 订单状态变更记录
type OrderStatusLog struct {
	ID         uint                  `gorm:"primarykey" json:"id"`                 // 主键
	OrderID    uint                  `gorm:"index;not null" json:"order_id"`       // 订单ID
	FromStatus constants.OrderStatus `gorm:"not null" json:"from_status"`          // 变更前状态
	ToStatus   constants.OrderStatus `gorm:"not null" json:"to_status"`            // 变更后状态
	Event      string                `gorm:"size:32;not null" json:"event"`        // 触发事件
	Actor      string                `gorm:"size:16;not null" json:"actor"`        // 操作来源
	Reason     string                `gorm:"size:500" json:"reason,omitempty"`     // 备注/原因
	OccurredAt time.Time             `gorm:"index;not null" json:"occurred_at"`    // 发生时间
	CreatedAt  time.Time             `gorm:"index" json:"created_at"`              // 记录时间
}

// TableName 指定表名
func (OrderStatusLog) TableName() string {
	return "order_status_logs"
}

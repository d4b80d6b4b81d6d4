package repository

import (
	"time"

	"github.com/cafe-next/internal/constants"
)

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      *constants.OrderStatus
	Code        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// VoucherListFilter 查询优惠券列表的过滤条件
type VoucherListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
	IsPublic *bool
}

// OrderStatusLogListFilter 查询订单状态记录的过滤条件
type OrderStatusLogListFilter struct {
	Page     int
	PageSize int
	OrderID  uint
}

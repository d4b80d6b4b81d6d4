package constants

// OrderStatus 订单状态（持久化为整数）
type OrderStatus int

// 订单状态常量
const (
	OrderStatusDraft      OrderStatus = 0
	OrderStatusPending    OrderStatus = 1
	OrderStatusConfirmed  OrderStatus = 2
	OrderStatusDelivering OrderStatus = 3
	OrderStatusPaid       OrderStatus = 4
	OrderStatusCompleted  OrderStatus = 5
	OrderStatusCancelled  OrderStatus = 6
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusDraft:      "draft",
	OrderStatusPending:    "pending",
	OrderStatusConfirmed:  "confirmed",
	OrderStatusDelivering: "delivering",
	OrderStatusPaid:       "paid",
	OrderStatusCompleted:  "completed",
	OrderStatusCancelled:  "cancelled",
}

// String 返回状态名称
func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid 是否为已知状态
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

// ParseOrderStatus 按名称解析订单状态
func ParseOrderStatus(name string) (OrderStatus, bool) {
	for status, value := range orderStatusNames {
		if value == name {
			return status, true
		}
	}
	return 0, false
}

// 优惠类型常量
const (
	DiscountTypeFixedAmount = "fixed_amount"
	DiscountTypePercentage  = "percentage"
)

// 优惠券校验失败原因
const (
	VoucherReasonNotFound            = "NOT_FOUND"
	VoucherReasonInactive            = "INACTIVE"
	VoucherReasonNotYetValid         = "NOT_YET_VALID"
	VoucherReasonExpired             = "EXPIRED"
	VoucherReasonBelowMinimum        = "BELOW_MINIMUM"
	VoucherReasonGlobalLimitReached  = "GLOBAL_LIMIT_REACHED"
	VoucherReasonNotAssigned         = "NOT_ASSIGNED"
	VoucherReasonAlreadyUsed         = "ALREADY_USED"
	VoucherReasonPerUserLimitReached = "PER_USER_LIMIT_REACHED"
	VoucherReasonAlreadyApplied      = "ALREADY_APPLIED"
	VoucherReasonNoRemainingAmount   = "NO_REMAINING_AMOUNT"
)

// 选项校验问题编码
const (
	IssueOptionGroupRequired  = "OPTION_GROUP_REQUIRED"
	IssueOptionSingleOnly     = "OPTION_SINGLE_SELECTION_ONLY"
	IssueOptionInvalid        = "OPTION_INVALID"
	IssueProductUnavailable   = "PRODUCT_UNAVAILABLE"
	IssueQuantityInvalid      = "QUANTITY_INVALID"
	IssueOrderItemsEmpty      = "ORDER_ITEMS_EMPTY"
	IssueAddressInvalid       = "ADDRESS_INVALID"
	IssueAddressRequired      = "ADDRESS_REQUIRED"
	IssueVoucherInputRequired = "VOUCHER_INPUT_REQUIRED"
)

// 订单状态变更来源
const (
	OrderActorUser   = "user"
	OrderActorAdmin  = "admin"
	OrderActorSystem = "system"
)

// 队列与任务常量
const (
	QueueDefault              = "default"
	TaskOrderStatusChanged    = "order:status_changed"
	TaskVoucherSweep          = "voucher:sweep"
	VoucherSweepLockKey       = "lock:voucher_sweep"
	RateLimitKeyPrefixOrder   = "rl:checkout"
	RateLimitKeyPrefixVoucher = "rl:voucher_preview"
)

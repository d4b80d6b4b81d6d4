package service

import "github.com/cafe-next/internal/constants"

// OrderEvent 订单事件
type OrderEvent string

// 订单事件常量
const (
	OrderEventEditItems     OrderEvent = "edit_items"
	OrderEventEditDetails   OrderEvent = "edit_details"
	OrderEventCheckout      OrderEvent = "checkout"
	OrderEventConfirm       OrderEvent = "confirm"
	OrderEventStartDelivery OrderEvent = "start_delivery"
	OrderEventMarkPaid      OrderEvent = "mark_paid"
	OrderEventComplete      OrderEvent = "complete"
	OrderEventCancel        OrderEvent = "cancel"
	OrderEventDelete        OrderEvent = "delete"
)

// NextOrderStatus 订单状态转移函数，非法事件返回 *StateConflictError。
// 编辑与删除类事件不改变状态，仅作为守卫使用。
func NextOrderStatus(current constants.OrderStatus, event OrderEvent) (constants.OrderStatus, error) {
	conflict := func() (constants.OrderStatus, error) {
		return current, &StateConflictError{Status: current, Event: event}
	}

	switch current {
	case constants.OrderStatusDraft:
		switch event {
		case OrderEventEditItems, OrderEventEditDetails, OrderEventDelete:
			return current, nil
		case OrderEventCheckout:
			return constants.OrderStatusPending, nil
		case OrderEventCancel:
			return constants.OrderStatusCancelled, nil
		}
	case constants.OrderStatusPending:
		switch event {
		case OrderEventEditDetails:
			return current, nil
		case OrderEventConfirm:
			return constants.OrderStatusConfirmed, nil
		case OrderEventMarkPaid:
			return constants.OrderStatusPaid, nil
		case OrderEventCancel:
			return constants.OrderStatusCancelled, nil
		}
	case constants.OrderStatusConfirmed:
		switch event {
		case OrderEventStartDelivery:
			return constants.OrderStatusDelivering, nil
		case OrderEventMarkPaid:
			return constants.OrderStatusPaid, nil
		case OrderEventCancel:
			return constants.OrderStatusCancelled, nil
		}
	case constants.OrderStatusDelivering:
		switch event {
		case OrderEventComplete:
			return constants.OrderStatusCompleted, nil
		case OrderEventCancel:
			return constants.OrderStatusCancelled, nil
		}
	case constants.OrderStatusPaid:
		switch event {
		case OrderEventComplete:
			return constants.OrderStatusCompleted, nil
		}
	case constants.OrderStatusCompleted:
	case constants.OrderStatusCancelled:
		switch event {
		case OrderEventDelete:
			return current, nil
		}
	}
	return conflict()
}

// ensureOrderEvent 仅校验事件是否允许
func ensureOrderEvent(current constants.OrderStatus, event OrderEvent) error {
	_, err := NextOrderStatus(current, event)
	return err
}

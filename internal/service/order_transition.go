package service

import (
	"fmt"
	"strings"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/queue"

	"gorm.io/gorm"
)

// orderEventRequest 订单事件请求
type orderEventRequest struct {
	OrderID uint
	UserID  uint
	Event   OrderEvent
	Actor   string
	Reason  string
}

// orderMutation 在事务内修改订单，状态已由事件推进
type orderMutation func(sc orderTxScope, order *models.Order) error

// CancelOrderInput 取消订单输入
type CancelOrderInput struct {
	OrderID uint
	UserID  uint
	Reason  string
	Actor   string
}

// applyEvent 事务内重新读取订单、校验事件、执行修改并按原状态条件写回
func (s *OrderService) applyEvent(req orderEventRequest, mutate orderMutation) (*models.Order, error) {
	var (
		from    constants.OrderStatus
		to      constants.OrderStatus
		current *models.Order
	)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		sc := s.scope(tx)
		order, err := sc.loadOrder(req.OrderID, req.UserID)
		if err != nil {
			return err
		}
		next, err := NextOrderStatus(order.Status, req.Event)
		if err != nil {
			return err
		}
		from = order.Status
		to = next
		order.Status = next
		if mutate != nil {
			if err := mutate(sc, order); err != nil {
				return err
			}
		}
		order.UpdatedAt = s.now()
		ok, err := sc.orders.UpdateGuarded(order, from)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
		if !ok {
			return &StateConflictError{Status: from, Event: req.Event}
		}
		current = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	if from != to {
		s.publishStatusChange(current, from, to, req)
	}
	return s.reload(req.OrderID)
}

// Confirm 商家确认订单
func (s *OrderService) Confirm(orderID uint) (*models.Order, error) {
	return s.applyEvent(orderEventRequest{
		OrderID: orderID,
		Event:   OrderEventConfirm,
		Actor:   constants.OrderActorAdmin,
	}, nil)
}

// StartDelivery 开始配送
func (s *OrderService) StartDelivery(orderID uint) (*models.Order, error) {
	return s.applyEvent(orderEventRequest{
		OrderID: orderID,
		Event:   OrderEventStartDelivery,
		Actor:   constants.OrderActorAdmin,
	}, nil)
}

// MarkPaid 标记已支付
func (s *OrderService) MarkPaid(orderID uint) (*models.Order, error) {
	return s.applyEvent(orderEventRequest{
		OrderID: orderID,
		Event:   OrderEventMarkPaid,
		Actor:   constants.OrderActorAdmin,
	}, func(sc orderTxScope, order *models.Order) error {
		paidAt := s.now()
		order.PaidAt = &paidAt
		return nil
	})
}

// Complete 完成订单
func (s *OrderService) Complete(orderID uint) (*models.Order, error) {
	return s.applyEvent(orderEventRequest{
		OrderID: orderID,
		Event:   OrderEventComplete,
		Actor:   constants.OrderActorAdmin,
	}, nil)
}

// Cancel 取消订单并归还已占用的优惠券额度（优惠券快照保留）
func (s *OrderService) Cancel(input CancelOrderInput) (*models.Order, error) {
	actor := input.Actor
	if actor == "" {
		actor = constants.OrderActorUser
	}
	reason := strings.TrimSpace(input.Reason)
	return s.applyEvent(orderEventRequest{
		OrderID: input.OrderID,
		UserID:  input.UserID,
		Event:   OrderEventCancel,
		Actor:   actor,
		Reason:  reason,
	}, func(sc orderTxScope, order *models.Order) error {
		if err := s.rollbackAppliedVouchers(sc, order); err != nil {
			return err
		}
		cancelledAt := s.now()
		order.CancelledAt = &cancelledAt
		order.CancelReason = reason
		order.DiscountAmount = models.ZeroMoney()
		applyOrderTotals(order)
		return nil
	})
}

// Delete 删除草稿或已取消订单；草稿订单先归还优惠券额度
func (s *OrderService) Delete(orderID, userID uint) error {
	return models.DB.Transaction(func(tx *gorm.DB) error {
		sc := s.scope(tx)
		order, err := sc.loadOrder(orderID, userID)
		if err != nil {
			return err
		}
		if err := ensureOrderEvent(order.Status, OrderEventDelete); err != nil {
			return err
		}
		from := order.Status
		if from == constants.OrderStatusDraft {
			if err := s.rollbackAppliedVouchers(sc, order); err != nil {
				return err
			}
		}
		order.UpdatedAt = s.now()
		ok, err := sc.orders.UpdateGuarded(order, from)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
		if !ok {
			return &StateConflictError{Status: from, Event: OrderEventDelete}
		}
		if err := sc.orders.Delete(order.ID); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
		return nil
	})
}

// rollbackAppliedVouchers 归还订单上所有已应用优惠券的额度
func (s *OrderService) rollbackAppliedVouchers(sc orderTxScope, order *models.Order) error {
	for _, voucherID := range order.AppliedVoucherIDs() {
		voucher, err := sc.vouchers.GetByID(voucherID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
		if voucher == nil {
			logger.Warnw("order_voucher_rollback_missing",
				"order_code", order.Code,
				"voucher_id", voucherID,
			)
			continue
		}
		if err := sc.ledger.RollbackVoucherUsage(voucher, order.UserID); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
	}
	return nil
}

// publishStatusChange 事务提交后推送状态变更事件，失败仅记录日志
func (s *OrderService) publishStatusChange(order *models.Order, from, to constants.OrderStatus, req orderEventRequest) {
	if order == nil || s.queueClient == nil {
		return
	}
	payload := queue.OrderStatusChangedPayload{
		OrderID:    order.ID,
		OrderCode:  order.Code,
		UserID:     order.UserID,
		FromStatus: from,
		ToStatus:   to,
		Event:      string(req.Event),
		Actor:      req.Actor,
		Reason:     req.Reason,
		OccurredAt: order.UpdatedAt,
	}
	if err := s.queueClient.EnqueueOrderStatusChanged(payload); err != nil {
		logger.Warnw("order_enqueue_status_changed_failed",
			"order_id", order.ID,
			"order_code", order.Code,
			"from_status", from.String(),
			"to_status", to.String(),
			"error", err,
		)
	}
}

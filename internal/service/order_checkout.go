package service

import (
	"fmt"
	"strings"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/models"
)

// CheckoutInput 结算输入（VoucherID 优先于 VoucherCode）
type CheckoutInput struct {
	OrderID     uint
	UserID      uint
	AddressID   uint
	VoucherID   uint
	VoucherCode string
}

// Checkout 结算草稿订单：校验订单项与地址、可选应用一张优惠券，订单进入待确认
func (s *OrderService) Checkout(input CheckoutInput) (*models.Order, error) {
	return s.applyEvent(orderEventRequest{
		OrderID: input.OrderID,
		UserID:  input.UserID,
		Event:   OrderEventCheckout,
		Actor:   constants.OrderActorUser,
	}, func(sc orderTxScope, order *models.Order) error {
		issues, err := s.checkoutIssues(sc, order)
		if err != nil {
			return err
		}
		if input.AddressID != 0 {
			issue, err := s.snapshotAddress(sc, order, input.AddressID)
			if err != nil {
				return err
			}
			if issue != nil {
				issues = append(issues, *issue)
			}
		} else if strings.TrimSpace(order.ShippingAddress) == "" {
			issues = append(issues, ValidationIssue{
				Code:    constants.IssueAddressRequired,
				Message: "shipping address is required",
			})
		}
		if len(issues) > 0 {
			return newValidationError(issues...)
		}

		applyOrderTotals(order)
		if input.VoucherID != 0 || strings.TrimSpace(input.VoucherCode) != "" {
			if err := s.applyCheckoutVoucher(sc, order, input); err != nil {
				return err
			}
		}
		return nil
	})
}

// checkoutIssues 校验订单项非空且仍可由当前目录解析
func (s *OrderService) checkoutIssues(sc orderTxScope, order *models.Order) ([]ValidationIssue, error) {
	if len(order.Items) == 0 {
		return []ValidationIssue{{
			Code:    constants.IssueOrderItemsEmpty,
			Message: "order has no items",
		}}, nil
	}

	productIDs := make([]uint, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := sc.catalog.ListProductsWithOptions(productIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	issues := make([]ValidationIssue, 0)
	for index, item := range order.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			issues = append(issues, productUnavailableIssue(item.ProductID, index))
			continue
		}
		for _, missing := range optionsStillResolvable(product.OptionGroups, item.Options) {
			issues = append(issues, ValidationIssue{
				Code:         constants.IssueOptionInvalid,
				Message:      fmt.Sprintf("invalid option id %d", missing),
				ItemIndex:    intRef(index),
				OptionItemID: missing,
			})
		}
	}
	return issues, nil
}

// applyCheckoutVoucher 以扣除已有优惠后的剩余金额校验并占用一张优惠券
func (s *OrderService) applyCheckoutVoucher(sc orderTxScope, order *models.Order, input CheckoutInput) error {
	remaining := order.Subtotal.SubFloor(order.DiscountAmount)

	var (
		validation *VoucherValidation
		err        error
	)
	if input.VoucherID != 0 {
		validation, err = sc.validator.ValidateByID(input.VoucherID, order.UserID, remaining)
	} else {
		validation, err = sc.validator.Validate(input.VoucherCode, order.UserID, remaining)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
	}
	if validation.Voucher != nil && containsVoucher(order.AppliedVoucherIDs(), validation.Voucher.ID) {
		return &VoucherRejection{Code: validation.Voucher.Code, Reason: constants.VoucherReasonAlreadyApplied}
	}
	if !validation.Valid {
		return validation.Rejection()
	}
	if !remaining.Decimal.IsPositive() {
		return &VoucherRejection{Code: validation.Voucher.Code, Reason: constants.VoucherReasonNoRemainingAmount}
	}
	if err := sc.ledger.ApplyVoucher(validation.Voucher, order.UserID); err != nil {
		return err
	}

	snapshot := newVoucherSnapshot(order.ID, validation, len(order.Vouchers)+1, s.now())
	if err := sc.orders.CreateVoucherSnapshots([]models.OrderVoucher{snapshot}); err != nil {
		return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
	}
	order.Vouchers = append(order.Vouchers, snapshot)
	if order.VoucherID == nil {
		id := validation.Voucher.ID
		order.VoucherID = &id
	}
	order.DiscountAmount = order.DiscountAmount.Add(validation.Discount)
	applyOrderTotals(order)
	return nil
}

func containsVoucher(ids []uint, target uint) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

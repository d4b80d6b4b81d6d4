package service

import (
	"fmt"
	"strings"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"

	"github.com/shopspring/decimal"
)

// PreviewVoucherInput 优惠券试算输入：按订单或按给定小计试算
type PreviewVoucherInput struct {
	UserID    uint
	OrderID   uint
	VoucherID uint
	Code      string
	Subtotal  *models.Money
}

// VoucherPreview 优惠券试算结果（不占用额度）
type VoucherPreview struct {
	Valid          bool         `json:"valid"`
	Reason         string       `json:"reason,omitempty"`
	VoucherID      uint         `json:"voucher_id,omitempty"`
	Code           string       `json:"code,omitempty"`
	Subtotal       models.Money `json:"subtotal"`
	DiscountAmount models.Money `json:"discount_amount"`
	ShippingFee    models.Money `json:"shipping_fee"`
	FinalAmount    models.Money `json:"final_amount"`
}

// GetOrder 获取订单详情；userID 为 0 时不限定归属
func (s *OrderService) GetOrder(orderID, userID uint) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if userID == 0 {
		order, err = s.orderRepo.GetByID(orderID)
	} else {
		order, err = s.orderRepo.GetByIDAndUser(orderID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 用户订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrUserRequired
	}
	orders, total, err := s.orderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	return orders, total, nil
}

// ListOrdersForAdmin 管理端订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	return orders, total, nil
}

// PreviewVoucher 试算优惠券，只读
func (s *OrderService) PreviewVoucher(input PreviewVoucherInput) (*VoucherPreview, error) {
	code := strings.TrimSpace(input.Code)
	if input.VoucherID == 0 && code == "" {
		return nil, newValidationError(ValidationIssue{
			Code:    constants.IssueVoucherInputRequired,
			Message: "voucher id or code is required",
		})
	}

	preview := &VoucherPreview{}
	existingDiscount := decimal.Zero
	applied := []uint{}
	userID := input.UserID
	if input.OrderID != 0 {
		order, err := s.GetOrder(input.OrderID, input.UserID)
		if err != nil {
			return nil, err
		}
		preview.Subtotal = order.Subtotal
		preview.ShippingFee = order.ShippingFee
		existingDiscount = order.DiscountAmount.Decimal
		applied = order.AppliedVoucherIDs()
		userID = order.UserID
	} else {
		if input.Subtotal == nil || input.Subtotal.Decimal.IsNegative() {
			return nil, ErrPreviewAmountEmpty
		}
		preview.Subtotal = models.NewMoneyFromDecimal(input.Subtotal.Decimal)
		preview.ShippingFee = models.NewMoneyFromDecimal(s.shippingFee)
	}

	remaining := preview.Subtotal.SubFloor(models.NewMoneyFromDecimal(existingDiscount))
	var (
		validation *VoucherValidation
		err        error
	)
	if input.VoucherID != 0 {
		validation, err = s.validator.ValidateByID(input.VoucherID, userID, remaining)
	} else {
		validation, err = s.validator.Validate(code, userID, remaining)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}

	preview.Valid = validation.Valid
	preview.Reason = validation.Reason
	if validation.Voucher != nil {
		preview.VoucherID = validation.Voucher.ID
		preview.Code = validation.Voucher.Code
		if containsVoucher(applied, validation.Voucher.ID) {
			preview.Valid = false
			preview.Reason = constants.VoucherReasonAlreadyApplied
		}
	}
	if preview.Valid && !remaining.Decimal.IsPositive() {
		preview.Valid = false
		preview.Reason = constants.VoucherReasonNoRemainingAmount
	}
	discount := existingDiscount
	if preview.Valid {
		discount = discount.Add(validation.Discount.Decimal)
	}
	final := preview.Subtotal.Decimal.Sub(discount).Add(preview.ShippingFee.Decimal)
	if final.IsNegative() {
		final = decimal.Zero
	}
	preview.DiscountAmount = models.NewMoneyFromDecimal(discount)
	preview.FinalAmount = models.NewMoneyFromDecimal(final)
	return preview, nil
}

// reload 事务提交后重新读取订单聚合
func (s *OrderService) reload(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

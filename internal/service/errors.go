package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cafe-next/internal/constants"
)

// 订单相关错误
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderItemNotFound  = errors.New("order item not found")
	ErrOrderCreateFailed  = errors.New("order create failed")
	ErrOrderUpdateFailed  = errors.New("order update failed")
	ErrOrderFetchFailed   = errors.New("order fetch failed")
	ErrValidation         = errors.New("validation failed")
	ErrStateConflict      = errors.New("order state conflict")
	ErrVoucherRejected    = errors.New("voucher rejected")
	ErrLedgerExhausted    = errors.New("voucher usage exhausted")
	ErrVoucherNotFound    = errors.New("voucher not found")
	ErrVoucherInvalid     = errors.New("voucher invalid")
	ErrVoucherCodeExists  = errors.New("voucher code already exists")
	ErrVoucherNotPrivate  = errors.New("voucher is public and cannot be assigned")
	ErrVoucherWindow      = errors.New("voucher end date must be after start date")
	ErrQueueUnavailable   = errors.New("queue unavailable")
	ErrSweepLockNotHeld   = errors.New("voucher sweep lock not acquired")
	ErrUserRequired       = errors.New("user is required")
	ErrPreviewAmountEmpty = errors.New("preview amount is required")
)

// ValidationIssue 单条校验问题
type ValidationIssue struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	ItemIndex    *int   `json:"item_index,omitempty"`
	GroupID      uint   `json:"group_id,omitempty"`
	OptionItemID uint   `json:"option_item_id,omitempty"`
}

// ValidationError 可恢复的校验错误，携带完整问题列表
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

// Is 支持 errors.Is(err, ErrValidation)
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(issues ...ValidationIssue) *ValidationError {
	return &ValidationError{Issues: issues}
}

// StateConflictError 当前状态不允许该操作
type StateConflictError struct {
	Status constants.OrderStatus
	Event  OrderEvent
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s: %s not allowed in status %s", ErrStateConflict.Error(), e.Event, e.Status)
}

// Is 支持 errors.Is(err, ErrStateConflict)
func (e *StateConflictError) Is(target error) bool {
	return target == ErrStateConflict
}

// VoucherRejection 优惠券校验未通过
type VoucherRejection struct {
	Code   string
	Reason string
}

func (e *VoucherRejection) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", ErrVoucherRejected.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrVoucherRejected.Error(), e.Reason, e.Code)
}

// Is 支持 errors.Is(err, ErrVoucherRejected)
func (e *VoucherRejection) Is(target error) bool {
	return target == ErrVoucherRejected
}

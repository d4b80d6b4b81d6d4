package service

import (
	"strings"
	"time"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VoucherValidation 优惠券校验结果
type VoucherValidation struct {
	Valid    bool            `json:"valid"`
	Reason   string          `json:"reason,omitempty"`
	Voucher  *models.Voucher `json:"voucher,omitempty"`
	Discount models.Money    `json:"discount"`
}

// Rejection 转换为拒绝错误
func (v *VoucherValidation) Rejection() error {
	if v == nil || v.Valid {
		return nil
	}
	code := ""
	if v.Voucher != nil {
		code = v.Voucher.Code
	}
	return &VoucherRejection{Code: code, Reason: v.Reason}
}

// VoucherValidator 优惠券资格校验（只读）
type VoucherValidator struct {
	voucherRepo     repository.VoucherRepository
	usageRepo       repository.VoucherUsageRepository
	userVoucherRepo repository.UserVoucherRepository
	now             func() time.Time
}

// NewVoucherValidator 创建优惠券校验器
func NewVoucherValidator(
	voucherRepo repository.VoucherRepository,
	usageRepo repository.VoucherUsageRepository,
	userVoucherRepo repository.UserVoucherRepository,
) *VoucherValidator {
	return &VoucherValidator{
		voucherRepo:     voucherRepo,
		usageRepo:       usageRepo,
		userVoucherRepo: userVoucherRepo,
		now:             time.Now,
	}
}

// WithTx 绑定事务，保证校验读取的是事务内最新数据
func (v *VoucherValidator) WithTx(tx *gorm.DB) *VoucherValidator {
	if tx == nil {
		return v
	}
	return &VoucherValidator{
		voucherRepo:     v.voucherRepo.WithTx(tx),
		usageRepo:       v.usageRepo.WithTx(tx),
		userVoucherRepo: v.userVoucherRepo.WithTx(tx),
		now:             v.now,
	}
}

// Validate 按优惠码校验
func (v *VoucherValidator) Validate(code string, userID uint, subtotal models.Money) (*VoucherValidation, error) {
	voucher, err := v.voucherRepo.GetByCode(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	return v.ValidateVoucher(voucher, userID, subtotal)
}

// ValidateByID 按优惠券ID校验
func (v *VoucherValidator) ValidateByID(id uint, userID uint, subtotal models.Money) (*VoucherValidation, error) {
	voucher, err := v.voucherRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return v.ValidateVoucher(voucher, userID, subtotal)
}

// ValidateVoucher 依次校验，遇到首个失败即返回
func (v *VoucherValidator) ValidateVoucher(voucher *models.Voucher, userID uint, subtotal models.Money) (*VoucherValidation, error) {
	if voucher == nil {
		return rejectVoucher(nil, constants.VoucherReasonNotFound), nil
	}
	if !voucher.IsActive {
		return rejectVoucher(voucher, constants.VoucherReasonInactive), nil
	}
	now := v.now()
	if now.Before(voucher.StartDate) {
		return rejectVoucher(voucher, constants.VoucherReasonNotYetValid), nil
	}
	if now.After(voucher.EndDate) {
		return rejectVoucher(voucher, constants.VoucherReasonExpired), nil
	}
	if voucher.MinOrderValue.Decimal.IsPositive() && subtotal.Decimal.LessThan(voucher.MinOrderValue.Decimal) {
		return rejectVoucher(voucher, constants.VoucherReasonBelowMinimum), nil
	}
	if voucher.UsageLimit != nil && voucher.CurrentUsageCount >= *voucher.UsageLimit {
		return rejectVoucher(voucher, constants.VoucherReasonGlobalLimitReached), nil
	}

	if !voucher.IsPublic {
		if userID == 0 {
			return rejectVoucher(voucher, constants.VoucherReasonNotAssigned), nil
		}
		assignment, err := v.userVoucherRepo.Get(userID, voucher.ID)
		if err != nil {
			return nil, err
		}
		if assignment == nil {
			return rejectVoucher(voucher, constants.VoucherReasonNotAssigned), nil
		}
		if assignment.IsUsed {
			return rejectVoucher(voucher, constants.VoucherReasonAlreadyUsed), nil
		}
	} else if voucher.UsageLimitPerUser != nil && userID != 0 {
		usage, err := v.usageRepo.Get(voucher.ID, userID)
		if err != nil {
			return nil, err
		}
		used := 0
		if usage != nil {
			used = usage.UsageCount
		}
		if used >= *voucher.UsageLimitPerUser {
			return rejectVoucher(voucher, constants.VoucherReasonPerUserLimitReached), nil
		}
	}

	return &VoucherValidation{
		Valid:    true,
		Voucher:  voucher,
		Discount: CalculateDiscount(voucher, subtotal),
	}, nil
}

func rejectVoucher(voucher *models.Voucher, reason string) *VoucherValidation {
	return &VoucherValidation{
		Valid:    false,
		Reason:   reason,
		Voucher:  voucher,
		Discount: models.ZeroMoney(),
	}
}

// CalculateDiscount 计算优惠金额：百分比按上限截断，结果不超过计算基数
func CalculateDiscount(voucher *models.Voucher, amount models.Money) models.Money {
	if voucher == nil || !amount.Decimal.IsPositive() {
		return models.ZeroMoney()
	}
	var discount decimal.Decimal
	switch voucher.DiscountType {
	case constants.DiscountTypePercentage:
		discount = amount.Decimal.Mul(voucher.DiscountValue.Decimal).Div(decimal.NewFromInt(100))
		if voucher.MaxDiscountAmount.Decimal.IsPositive() && discount.GreaterThan(voucher.MaxDiscountAmount.Decimal) {
			discount = voucher.MaxDiscountAmount.Decimal
		}
	default:
		discount = voucher.DiscountValue.Decimal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(amount.Decimal) {
		discount = amount.Decimal
	}
	return models.NewMoneyFromDecimal(discount)
}

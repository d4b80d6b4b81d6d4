package service

import (
	"strings"
	"time"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"

	"github.com/shopspring/decimal"
)

// VoucherAdminService 优惠券管理服务
type VoucherAdminService struct {
	voucherRepo     repository.VoucherRepository
	usageRepo       repository.VoucherUsageRepository
	userVoucherRepo repository.UserVoucherRepository
	now             func() time.Time
}

// NewVoucherAdminService 创建优惠券管理服务
func NewVoucherAdminService(voucherRepo repository.VoucherRepository, usageRepo repository.VoucherUsageRepository, userVoucherRepo repository.UserVoucherRepository) *VoucherAdminService {
	return &VoucherAdminService{
		voucherRepo:     voucherRepo,
		usageRepo:       usageRepo,
		userVoucherRepo: userVoucherRepo,
		now:             time.Now,
	}
}

// CreateVoucherInput 创建优惠券输入
type CreateVoucherInput struct {
	Code              string
	Description       string
	DiscountType      string
	DiscountValue     models.Money
	MinOrderValue     models.Money
	MaxDiscountAmount models.Money
	StartDate         time.Time
	EndDate           time.Time
	UsageLimit        *int
	UsageLimitPerUser *int
	IsPublic          *bool
	IsActive          *bool
}

// VoucherLedgerView 优惠券账本视图
type VoucherLedgerView struct {
	Voucher     *models.Voucher       `json:"voucher"`
	Remaining   int                   `json:"remaining"`
	Usages      []models.VoucherUsage `json:"usages"`
	Assignments []models.UserVoucher  `json:"assignments"`
}

// Create 创建优惠券（优惠码统一大写）
func (s *VoucherAdminService) Create(input CreateVoucherInput) (*models.Voucher, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrVoucherInvalid
	}
	discountType := strings.ToLower(strings.TrimSpace(input.DiscountType))
	if discountType != constants.DiscountTypeFixedAmount && discountType != constants.DiscountTypePercentage {
		return nil, ErrVoucherInvalid
	}
	if input.DiscountValue.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrVoucherInvalid
	}
	if discountType == constants.DiscountTypePercentage && input.DiscountValue.Decimal.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrVoucherInvalid
	}
	if input.MinOrderValue.Decimal.IsNegative() || input.MaxDiscountAmount.Decimal.IsNegative() {
		return nil, ErrVoucherInvalid
	}
	if input.UsageLimit != nil && *input.UsageLimit <= 0 {
		return nil, ErrVoucherInvalid
	}
	if input.UsageLimitPerUser != nil && *input.UsageLimitPerUser <= 0 {
		return nil, ErrVoucherInvalid
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() || !input.EndDate.After(input.StartDate) {
		return nil, ErrVoucherWindow
	}

	now := s.now()
	exist, err := s.voucherRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrVoucherCodeExists
	}

	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	usageLimitPerUser := input.UsageLimitPerUser
	if !isPublic {
		// 私有券按分配记录限制，每人一次
		usageLimitPerUser = nil
	}

	voucher := &models.Voucher{
		Code:              code,
		Description:       strings.TrimSpace(input.Description),
		DiscountType:      discountType,
		DiscountValue:     models.NewMoneyFromDecimal(input.DiscountValue.Decimal),
		MinOrderValue:     models.NewMoneyFromDecimal(input.MinOrderValue.Decimal),
		MaxDiscountAmount: models.NewMoneyFromDecimal(input.MaxDiscountAmount.Decimal),
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		UsageLimit:        input.UsageLimit,
		UsageLimitPerUser: usageLimitPerUser,
		IsActive:          isActive && !now.Before(input.StartDate) && !now.After(input.EndDate),
		IsPublic:          isPublic,
		AutoManaged:       isActive,
	}
	if err := s.voucherRepo.Create(voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

// SetActive 手动启用或停用优惠券，之后不再由巡检任务切换
func (s *VoucherAdminService) SetActive(id uint, active bool) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	if _, err := s.voucherRepo.SetActive(id, active); err != nil {
		return nil, err
	}
	voucher.IsActive = active
	voucher.AutoManaged = false
	return voucher, nil
}

// Assign 将私有券分配给用户（重复分配幂等）
func (s *VoucherAdminService) Assign(voucherID, userID uint) (*models.UserVoucher, error) {
	if userID == 0 {
		return nil, ErrUserRequired
	}
	voucher, err := s.voucherRepo.GetByID(voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	if voucher.IsPublic {
		return nil, ErrVoucherNotPrivate
	}
	if _, err := s.userVoucherRepo.Assign(&models.UserVoucher{
		UserID:     userID,
		VoucherID:  voucherID,
		AssignedAt: s.now(),
	}); err != nil {
		return nil, err
	}
	return s.userVoucherRepo.Get(userID, voucherID)
}

// List 优惠券列表
func (s *VoucherAdminService) List(filter repository.VoucherListFilter) ([]models.Voucher, int64, error) {
	filter.Code = strings.TrimSpace(filter.Code)
	return s.voucherRepo.List(filter)
}

// GetLedger 获取优惠券全局计数及用户维度记录
func (s *VoucherAdminService) GetLedger(voucherID uint) (*VoucherLedgerView, error) {
	voucher, err := s.voucherRepo.GetByID(voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	view := &VoucherLedgerView{
		Voucher:     voucher,
		Remaining:   voucher.RemainingUsage(),
		Usages:      []models.VoucherUsage{},
		Assignments: []models.UserVoucher{},
	}
	if voucher.IsPublic {
		usages, err := s.usageRepo.ListByVoucher(voucherID)
		if err != nil {
			return nil, err
		}
		view.Usages = usages
		return view, nil
	}
	assignments, err := s.userVoucherRepo.ListByVoucher(voucherID)
	if err != nil {
		return nil, err
	}
	view.Assignments = assignments
	return view, nil
}

// ListAvailable 用户当前可用的优惠券：公开券有剩余额度，或私有券已分配且未使用
func (s *VoucherAdminService) ListAvailable(userID uint) ([]models.Voucher, error) {
	now := s.now()
	usable, err := s.voucherRepo.ListUsable(now)
	if err != nil {
		return nil, err
	}
	result := make([]models.Voucher, 0, len(usable))
	for _, voucher := range usable {
		if !voucher.IsPublic {
			continue
		}
		if voucher.UsageLimitPerUser != nil && userID != 0 {
			usage, err := s.usageRepo.Get(voucher.ID, userID)
			if err != nil {
				return nil, err
			}
			if usage != nil && usage.UsageCount >= *voucher.UsageLimitPerUser {
				continue
			}
		}
		result = append(result, voucher)
	}
	if userID == 0 {
		return result, nil
	}

	assignments, err := s.userVoucherRepo.ListUnusedByUser(userID)
	if err != nil {
		return nil, err
	}
	for _, assignment := range assignments {
		voucher := assignment.Voucher
		if voucher == nil || !voucher.IsActive || !voucher.InWindow(now) {
			continue
		}
		if voucher.RemainingUsage() == 0 {
			continue
		}
		result = append(result, *voucher)
	}
	return result, nil
}

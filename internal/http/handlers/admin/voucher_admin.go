package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/cafe-next/internal/http/handlers/shared"
	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateVoucherRequest 创建优惠券请求
type CreateVoucherRequest struct {
	Code              string       `json:"code" binding:"required"`
	Description       string       `json:"description"`
	DiscountType      string       `json:"discount_type" binding:"required"`
	DiscountValue     models.Money `json:"discount_value"`
	MinOrderValue     models.Money `json:"min_order_value"`
	MaxDiscountAmount models.Money `json:"max_discount_amount"`
	StartDate         time.Time    `json:"start_date" binding:"required"`
	EndDate           time.Time    `json:"end_date" binding:"required"`
	UsageLimit        *int         `json:"usage_limit"`
	UsageLimitPerUser *int         `json:"usage_limit_per_user"`
	IsPublic          *bool        `json:"is_public"`
	IsActive          *bool        `json:"is_active"`
}

// AssignVoucherRequest 分配私有券请求
type AssignVoucherRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// SetVoucherActiveRequest 手动启停请求
type SetVoucherActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateVoucher 创建优惠券
func (h *Handler) CreateVoucher(c *gin.Context) {
	var req CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	voucher, err := h.VoucherAdminService.Create(service.CreateVoucherInput{
		Code:              req.Code,
		Description:       req.Description,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MinOrderValue:     req.MinOrderValue,
		MaxDiscountAmount: req.MaxDiscountAmount,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		UsageLimit:        req.UsageLimit,
		UsageLimitPerUser: req.UsageLimitPerUser,
		IsPublic:          req.IsPublic,
		IsActive:          req.IsActive,
	})
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	response.Success(c, voucher)
}

// ListVouchers 优惠券列表
func (h *Handler) ListVouchers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.VoucherListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &parsed
		}
	}
	if raw := strings.TrimSpace(c.Query("is_public")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			filter.IsPublic = &parsed
		}
	}

	vouchers, total, err := h.VoucherAdminService.List(filter)
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	response.SuccessWithPage(c, vouchers, handlershared.BuildPagination(page, pageSize, total))
}

// AssignVoucher 分配私有券
func (h *Handler) AssignVoucher(c *gin.Context) {
	voucherID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}
	var req AssignVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	assignment, err := h.VoucherAdminService.Assign(voucherID, req.UserID)
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	handlershared.InvalidateAvailableVouchers(c, req.UserID)
	response.Success(c, assignment)
}

// GetVoucherLedger 优惠券使用账本
func (h *Handler) GetVoucherLedger(c *gin.Context) {
	voucherID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}
	view, err := h.VoucherAdminService.GetLedger(voucherID)
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	response.Success(c, view)
}

// SetVoucherActive 手动启用或停用优惠券
func (h *Handler) SetVoucherActive(c *gin.Context) {
	voucherID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}
	var req SetVoucherActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	voucher, err := h.VoucherAdminService.SetActive(voucherID, *req.IsActive)
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	requestLog(c).Infow("admin_voucher_active_changed",
		"voucher_id", voucherID,
		"is_active", voucher.IsActive,
		"operator", adminActorName(c),
	)
	response.Success(c, voucher)
}

// TriggerVoucherSweep 立即投递一次优惠券有效期巡检
func (h *Handler) TriggerVoucherSweep(c *gin.Context) {
	if err := h.VoucherSweeper.RequestSweep(adminActorName(c)); err != nil {
		respondVoucherError(c, err)
		return
	}
	response.Success(c, gin.H{"queued": true})
}

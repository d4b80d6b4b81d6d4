package public

import (
	"github.com/cafe-next/internal/cache"
	handlershared "github.com/cafe-next/internal/http/handlers/shared"
	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PreviewVoucherRequest 优惠券试算请求（order_id 与 subtotal 二选一）
type PreviewVoucherRequest struct {
	OrderID   uint          `json:"order_id"`
	VoucherID uint          `json:"voucher_id"`
	Code      string        `json:"code"`
	Subtotal  *models.Money `json:"subtotal"`
}

// PreviewVoucher 试算优惠券（不占用额度）
func (h *Handler) PreviewVoucher(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req PreviewVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	preview, err := h.OrderService.PreviewVoucher(service.PreviewVoucherInput{
		UserID:    uid,
		OrderID:   req.OrderID,
		VoucherID: req.VoucherID,
		Code:      req.Code,
		Subtotal:  req.Subtotal,
	})
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	response.Success(c, preview)
}

// ListAvailableVouchers 当前用户可用的优惠券
func (h *Handler) ListAvailableVouchers(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	cacheKey := handlershared.AvailableVouchersCacheKey(uid)
	var cached []models.Voucher
	if hit, err := cache.GetJSON(c.Request.Context(), cacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	vouchers, err := h.VoucherAdminService.ListAvailable(uid)
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	if err := cache.SetJSON(c.Request.Context(), cacheKey, vouchers, handlershared.AvailableVouchersCacheTTL); err != nil {
		handlershared.RequestLog(c).Warnw("available_vouchers_cache_set_failed", "user_id", uid, "error", err)
	}
	response.Success(c, vouchers)
}

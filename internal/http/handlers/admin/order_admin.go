package admin

import (
	"strconv"
	"strings"

	"github.com/cafe-next/internal/constants"
	handlershared "github.com/cafe-next/internal/http/handlers/shared"
	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminCancelOrderRequest 管理端取消订单请求
type AdminCancelOrderRequest struct {
	Reason string `json:"reason"`
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	createdFrom, err := handlershared.ParseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_from is invalid", err)
		return
	}
	createdTo, err := handlershared.ParseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_to is invalid", err)
		return
	}
	filter := repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		Code:        strings.TrimSpace(c.Query("code")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.UserID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, ok := constants.ParseOrderStatus(strings.ToLower(raw))
		if !ok {
			respondError(c, response.CodeBadRequest, "status is invalid", nil)
			return
		}
		filter.Status = &status
	}

	orders, total, err := h.OrderService.ListOrdersForAdmin(filter)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(orderID, 0)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// AdminGetOrderHistory 订单状态变更历史
func (h *Handler) AdminGetOrderHistory(c *gin.Context) {
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	logs, total, err := h.OrderStatusRecorder.History(repository.OrderStatusLogListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderID:  orderID,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.SuccessWithPage(c, logs, handlershared.BuildPagination(page, pageSize, total))
}

// AdminConfirmOrder 确认订单
func (h *Handler) AdminConfirmOrder(c *gin.Context) {
	h.applyOrderTransition(c, "confirm", h.OrderService.Confirm)
}

// AdminMarkOrderPaid 标记订单已支付
func (h *Handler) AdminMarkOrderPaid(c *gin.Context) {
	h.applyOrderTransition(c, "mark_paid", h.OrderService.MarkPaid)
}

// AdminDeliverOrder 开始配送
func (h *Handler) AdminDeliverOrder(c *gin.Context) {
	h.applyOrderTransition(c, "deliver", h.OrderService.StartDelivery)
}

// AdminCompleteOrder 完成订单
func (h *Handler) AdminCompleteOrder(c *gin.Context) {
	h.applyOrderTransition(c, "complete", h.OrderService.Complete)
}

// AdminCancelOrder 管理端取消订单
func (h *Handler) AdminCancelOrder(c *gin.Context) {
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}
	var req AdminCancelOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
	}
	order, err := h.OrderService.Cancel(service.CancelOrderInput{
		OrderID: orderID,
		Reason:  req.Reason,
		Actor:   constants.OrderActorAdmin,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	if len(order.Vouchers) > 0 {
		handlershared.InvalidateAvailableVouchers(c, order.UserID)
	}
	requestLog(c).Infow("admin_order_cancelled", "order_id", orderID, "operator", adminActorName(c))
	response.Success(c, order)
}

func (h *Handler) applyOrderTransition(c *gin.Context, action string, transition func(orderID uint) (*models.Order, error)) {
	if _, ok := getAdminID(c); !ok {
		return
	}
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}
	order, err := transition(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_transition",
		"order_id", orderID,
		"action", action,
		"status", order.Status.String(),
		"operator", adminActorName(c),
	)
	response.Success(c, order)
}

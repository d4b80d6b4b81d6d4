package public

import (
	"strconv"
	"strings"

	"github.com/cafe-next/internal/constants"
	handlershared "github.com/cafe-next/internal/http/handlers/shared"
	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/repository"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderItemRequest 订单项请求
type OrderItemRequest struct {
	ProductID     uint   `json:"product_id"`
	Quantity      int    `json:"quantity"`
	OptionItemIDs []uint `json:"option_item_ids"`
	Note          string `json:"note"`
}

func (r OrderItemRequest) toInput() service.OrderItemInput {
	return service.OrderItemInput{
		ProductID:     r.ProductID,
		Quantity:      r.Quantity,
		OptionItemIDs: r.OptionItemIDs,
		Note:          r.Note,
	}
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	Items      []OrderItemRequest `json:"items"`
	Note       string             `json:"note"`
	AddressID  uint               `json:"address_id"`
	VoucherIDs []uint             `json:"voucher_ids"`
}

// UpdateOrderRequest 修改订单请求（address_id 传 0 清空地址）
type UpdateOrderRequest struct {
	Note      *string `json:"note"`
	AddressID *uint   `json:"address_id"`
}

// UpdateOrderItemRequest 修改订单项请求
type UpdateOrderItemRequest struct {
	Quantity      *int    `json:"quantity"`
	OptionItemIDs *[]uint `json:"option_item_ids"`
	Note          *string `json:"note"`
}

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	AddressID   uint   `json:"address_id"`
	VoucherID   uint   `json:"voucher_id"`
	VoucherCode string `json:"voucher_code"`
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CreateOrder 创建草稿订单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, item.toInput())
	}
	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		UserID:     uid,
		Items:      items,
		Note:       req.Note,
		AddressID:  req.AddressID,
		VoucherIDs: req.VoucherIDs,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}

	response.Success(c, order)
}

// ListOrders 获取当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, ok := constants.ParseOrderStatus(strings.ToLower(raw))
		if !ok {
			respondError(c, response.CodeBadRequest, "status is invalid", nil)
			return
		}
		filter.Status = &status
	}

	orders, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrder(orderID, uid)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrder 修改订单备注或地址
func (h *Handler) UpdateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.UpdateOrder(service.UpdateOrderInput{
		OrderID:   orderID,
		UserID:    uid,
		Note:      req.Note,
		AddressID: req.AddressID,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// DeleteOrder 删除订单
func (h *Handler) DeleteOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}

	if err := h.OrderService.Delete(orderID, uid); err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AddOrderItem 追加订单项
func (h *Handler) AddOrderItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}

	var req OrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.AddItem(service.AddOrderItemInput{
		OrderID: orderID,
		UserID:  uid,
		Item:    req.toInput(),
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderItem 修改订单项数量、选项或备注
func (h *Handler) UpdateOrderItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}
	itemID, ok := handlershared.ParsePathUint(c, "item_id")
	if !ok {
		return
	}

	var req UpdateOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.UpdateItem(service.UpdateOrderItemInput{
		OrderID:       orderID,
		UserID:        uid,
		ItemID:        itemID,
		Quantity:      req.Quantity,
		OptionItemIDs: req.OptionItemIDs,
		Note:          req.Note,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// RemoveOrderItem 删除订单项
func (h *Handler) RemoveOrderItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}
	itemID, ok := handlershared.ParsePathUint(c, "item_id")
	if !ok {
		return
	}

	order, err := h.OrderService.RemoveItem(orderID, uid, itemID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// CheckoutOrder 结算草稿订单
func (h *Handler) CheckoutOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.Checkout(service.CheckoutInput{
		OrderID:     orderID,
		UserID:      uid,
		AddressID:   req.AddressID,
		VoucherID:   req.VoucherID,
		VoucherCode: req.VoucherCode,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	if len(order.Vouchers) > 0 {
		handlershared.InvalidateAvailableVouchers(c, uid)
	}
	response.Success(c, order)
}

// CancelOrder 用户取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.Cancel(service.CancelOrderInput{
		OrderID: orderID,
		UserID:  uid,
		Reason:  req.Reason,
		Actor:   constants.OrderActorUser,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	if len(order.Vouchers) > 0 {
		handlershared.InvalidateAvailableVouchers(c, uid)
	}
	response.Success(c, order)
}

package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/queue"
	"github.com/cafe-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	catalogRepo repository.CatalogRepository
	addressRepo repository.AddressRepository
	voucherRepo repository.VoucherRepository
	validator   *VoucherValidator
	ledger      *VoucherLedger
	queueClient *queue.Client
	codeGen     OrderCodeGenerator
	shippingFee decimal.Decimal
	now         func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, catalogRepo repository.CatalogRepository, addressRepo repository.AddressRepository, voucherRepo repository.VoucherRepository, validator *VoucherValidator, ledger *VoucherLedger, queueClient *queue.Client, codeGen OrderCodeGenerator, shippingFee decimal.Decimal) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		addressRepo: addressRepo,
		voucherRepo: voucherRepo,
		validator:   validator,
		ledger:      ledger,
		queueClient: queueClient,
		codeGen:     codeGen,
		shippingFee: shippingFee.Round(2),
		now:         time.Now,
	}
}

// OrderItemInput 订单项输入
type OrderItemInput struct {
	ProductID     uint
	Quantity      int
	OptionItemIDs []uint
	Note          string
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID     uint
	Items      []OrderItemInput
	Note       string
	AddressID  uint
	VoucherIDs []uint
}

// AddOrderItemInput 追加订单项输入
type AddOrderItemInput struct {
	OrderID uint
	UserID  uint
	Item    OrderItemInput
}

// UpdateOrderItemInput 修改订单项输入（nil 字段保持不变）
type UpdateOrderItemInput struct {
	OrderID       uint
	UserID        uint
	ItemID        uint
	Quantity      *int
	OptionItemIDs *[]uint
	Note          *string
}

// UpdateOrderInput 修改订单备注或地址输入（AddressID 为 0 表示清空地址）
type UpdateOrderInput struct {
	OrderID   uint
	UserID    uint
	Note      *string
	AddressID *uint
}

// orderTxScope 事务内使用的仓库与组件
type orderTxScope struct {
	orders    *repository.GormOrderRepository
	catalog   *repository.GormCatalogRepository
	addresses *repository.GormAddressRepository
	vouchers  *repository.GormVoucherRepository
	validator *VoucherValidator
	ledger    *VoucherLedger
}

func (s *OrderService) scope(tx *gorm.DB) orderTxScope {
	return orderTxScope{
		orders:    s.orderRepo.WithTx(tx),
		catalog:   s.catalogRepo.WithTx(tx),
		addresses: s.addressRepo.WithTx(tx),
		vouchers:  s.voucherRepo.WithTx(tx),
		validator: s.validator.WithTx(tx),
		ledger:    s.ledger.WithTx(tx),
	}
}

// loadOrder 事务内重新读取订单；userID 为 0 时不限定归属（管理端）
func (sc orderTxScope) loadOrder(orderID, userID uint) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if userID == 0 {
		order, err = sc.orders.GetByID(orderID)
	} else {
		order, err = sc.orders.GetByIDAndUser(orderID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// CreateOrder 创建草稿订单，可同时按顺序应用多张优惠券
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	code := s.codeGen.Next()
	var orderID uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		sc := s.scope(tx)

		items := make([]models.OrderItem, 0, len(input.Items))
		issues := make([]ValidationIssue, 0)
		for index, itemInput := range input.Items {
			item, itemIssues, err := buildOrderItem(sc.catalog, itemInput, index)
			if err != nil {
				return err
			}
			if len(itemIssues) > 0 {
				issues = append(issues, itemIssues...)
				continue
			}
			items = append(items, *item)
		}

		order := &models.Order{
			Code:        code,
			Status:      constants.OrderStatusDraft,
			UserID:      input.UserID,
			Note:        strings.TrimSpace(input.Note),
			ShippingFee: models.NewMoneyFromDecimal(s.shippingFee),
			Items:       items,
		}
		if input.AddressID != 0 {
			issue, err := s.snapshotAddress(sc, order, input.AddressID)
			if err != nil {
				return err
			}
			if issue != nil {
				issues = append(issues, *issue)
			}
		}
		if len(issues) > 0 {
			return newValidationError(issues...)
		}

		applyOrderTotals(order)
		if err := sc.orders.Create(order); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderCreateFailed, err)
		}
		orderID = order.ID

		if len(input.VoucherIDs) == 0 {
			return nil
		}
		if err := s.applyVouchersSequentially(sc, order, input.VoucherIDs); err != nil {
			return err
		}
		ok, err := sc.orders.UpdateGuarded(order, constants.OrderStatusDraft)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOrderCreateFailed, err)
		}
		if !ok {
			return &StateConflictError{Status: order.Status, Event: OrderEventEditItems}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(orderID)
}

// applyVouchersSequentially 依次以剩余金额为基数应用优惠券，不可用的券直接跳过
func (s *OrderService) applyVouchersSequentially(sc orderTxScope, order *models.Order, voucherIDs []uint) error {
	seen := make(map[uint]struct{}, len(voucherIDs))
	snapshots := make([]models.OrderVoucher, 0, len(voucherIDs))
	accumulated := decimal.Zero
	appliedAt := s.now()

	for _, voucherID := range voucherIDs {
		if voucherID == 0 {
			continue
		}
		if _, ok := seen[voucherID]; ok {
			continue
		}
		seen[voucherID] = struct{}{}

		remaining := order.Subtotal.Decimal.Sub(accumulated)
		if !remaining.IsPositive() {
			break
		}

		validation, err := sc.validator.ValidateByID(voucherID, order.UserID, models.NewMoneyFromDecimal(remaining))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOrderCreateFailed, err)
		}
		if !validation.Valid {
			logger.Debugw("order_voucher_skipped",
				"order_code", order.Code,
				"voucher_id", voucherID,
				"reason", validation.Reason,
			)
			continue
		}
		if err := sc.ledger.ApplyVoucher(validation.Voucher, order.UserID); err != nil {
			if errors.Is(err, ErrLedgerExhausted) {
				logger.Debugw("order_voucher_skipped",
					"order_code", order.Code,
					"voucher_id", voucherID,
					"reason", "ledger_exhausted",
				)
				continue
			}
			return fmt.Errorf("%w: %w", ErrOrderCreateFailed, err)
		}

		accumulated = accumulated.Add(validation.Discount.Decimal)
		snapshots = append(snapshots, newVoucherSnapshot(order.ID, validation, len(snapshots)+1, appliedAt))
		if order.VoucherID == nil {
			id := validation.Voucher.ID
			order.VoucherID = &id
		}
	}

	if len(snapshots) == 0 {
		return nil
	}
	if err := sc.orders.CreateVoucherSnapshots(snapshots); err != nil {
		return fmt.Errorf("%w: %w", ErrOrderCreateFailed, err)
	}
	order.Vouchers = append(order.Vouchers, snapshots...)
	order.DiscountAmount = order.DiscountAmount.Add(models.NewMoneyFromDecimal(accumulated))
	applyOrderTotals(order)
	return nil
}

func newVoucherSnapshot(orderID uint, validation *VoucherValidation, applyOrder int, appliedAt time.Time) models.OrderVoucher {
	voucher := validation.Voucher
	return models.OrderVoucher{
		OrderID:        orderID,
		VoucherID:      voucher.ID,
		Code:           voucher.Code,
		DiscountType:   voucher.DiscountType,
		DiscountValue:  voucher.DiscountValue,
		DiscountAmount: validation.Discount,
		ApplyOrder:     applyOrder,
		AppliedAt:      appliedAt,
	}
}

// repriceVouchers 订单项变更后按应用顺序以剩余金额重算订单优惠，快照行保持不变
func (s *OrderService) repriceVouchers(sc orderTxScope, order *models.Order) error {
	if len(order.Vouchers) == 0 {
		applyOrderTotals(order)
		return nil
	}
	subtotal := CalculateSubtotal(order.Items)
	total := models.ZeroMoney()
	for _, snapshot := range order.Vouchers {
		// 类型与数值取快照，封顶取优惠券当前配置
		priced := models.Voucher{DiscountType: snapshot.DiscountType, DiscountValue: snapshot.DiscountValue}
		voucher, err := sc.vouchers.GetByID(snapshot.VoucherID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
		}
		if voucher != nil {
			priced.MaxDiscountAmount = voucher.MaxDiscountAmount
		}
		total = total.Add(CalculateDiscount(&priced, subtotal.SubFloor(total)))
	}
	order.DiscountAmount = total
	applyOrderTotals(order)
	return nil
}

// AddItem 向草稿订单追加订单项
func (s *OrderService) AddItem(input AddOrderItemInput) (*models.Order, error) {
	return s.applyEvent(orderEventRequest{
		OrderID: input.OrderID,
		UserID:  input.UserID,
		Event:   OrderEventEditItems,
		Actor:   constants.OrderActorUser,
	}, func(sc orderTxScope, order *models.Order) error {
		item, issues, err := buildOrderItem(sc.catalog, input.Item, len(order.Items))
		if err != nil {
			return err
		}
		if len(issues) > 0 {
			return newValidationError(issues...)
		}
		item.OrderID = order.ID
		if err := sc.orders.CreateItem(item); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
		order.Items = append(order.Items, *item)
		return s.repriceVouchers(sc, order)
	})
}

// UpdateItem 修改草稿订单中的订单项
func (s *OrderService) UpdateItem(input UpdateOrderItemInput) (*models.Order, error) {
	return s.applyEvent(orderEventRequest{
		OrderID: input.OrderID,
		UserID:  input.UserID,
		Event:   OrderEventEditItems,
		Actor:   constants.OrderActorUser,
	}, func(sc orderTxScope, order *models.Order) error {
		index := findOrderItem(order, input.ItemID)
		if index < 0 {
			return ErrOrderItemNotFound
		}
		item := order.Items[index]

		if input.Quantity != nil {
			if *input.Quantity <= 0 {
				return newValidationError(ValidationIssue{
					Code:      constants.IssueQuantityInvalid,
					Message:   "quantity must be greater than zero",
					ItemIndex: intRef(index),
				})
			}
			item.Quantity = *input.Quantity
		}
		if input.Note != nil {
			item.Note = strings.TrimSpace(*input.Note)
		}
		if input.OptionItemIDs != nil {
			product, err := sc.catalog.GetProductWithOptions(item.ProductID)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
			}
			if product == nil {
				return newValidationError(productUnavailableIssue(item.ProductID, index))
			}
			options, issues := ResolveOptions(product.OptionGroups, *input.OptionItemIDs)
			if len(issues) > 0 {
				return newValidationError(withItemIndex(issues, index)...)
			}
			item.Options = options
		}

		applyItemPricing(&item)
		if err := sc.orders.ReplaceItem(&item); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
		order.Items[index] = item
		return s.repriceVouchers(sc, order)
	})
}

// RemoveItem 删除草稿订单中的订单项
func (s *OrderService) RemoveItem(orderID, userID, itemID uint) (*models.Order, error) {
	return s.applyEvent(orderEventRequest{
		OrderID: orderID,
		UserID:  userID,
		Event:   OrderEventEditItems,
		Actor:   constants.OrderActorUser,
	}, func(sc orderTxScope, order *models.Order) error {
		index := findOrderItem(order, itemID)
		if index < 0 {
			return ErrOrderItemNotFound
		}
		if err := sc.orders.DeleteItem(order.ID, itemID); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
		order.Items = append(order.Items[:index], order.Items[index+1:]...)
		return s.repriceVouchers(sc, order)
	})
}

// UpdateOrder 修改订单备注与配送地址
func (s *OrderService) UpdateOrder(input UpdateOrderInput) (*models.Order, error) {
	return s.applyEvent(orderEventRequest{
		OrderID: input.OrderID,
		UserID:  input.UserID,
		Event:   OrderEventEditDetails,
		Actor:   constants.OrderActorUser,
	}, func(sc orderTxScope, order *models.Order) error {
		if input.Note != nil {
			order.Note = strings.TrimSpace(*input.Note)
		}
		if input.AddressID != nil {
			if *input.AddressID == 0 {
				order.RecipientName = ""
				order.ShippingAddress = ""
				order.PhoneNumber = ""
				return nil
			}
			issue, err := s.snapshotAddress(sc, order, *input.AddressID)
			if err != nil {
				return err
			}
			if issue != nil {
				return newValidationError(*issue)
			}
		}
		return nil
	})
}

// snapshotAddress 将用户地址快照写入订单；地址无效时返回校验问题
func (s *OrderService) snapshotAddress(sc orderTxScope, order *models.Order, addressID uint) (*ValidationIssue, error) {
	invalid := &ValidationIssue{
		Code:    constants.IssueAddressInvalid,
		Message: fmt.Sprintf("address %d is not available", addressID),
	}
	if order.UserID == 0 {
		return invalid, nil
	}
	address, err := sc.addresses.GetByIDAndUser(addressID, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if address == nil {
		return invalid, nil
	}
	order.RecipientName = address.RecipientName
	order.ShippingAddress = address.AddressLine
	order.PhoneNumber = address.PhoneNumber
	return nil, nil
}

// buildOrderItem 按当前目录生成订单项快照
func buildOrderItem(catalog repository.CatalogRepository, input OrderItemInput, index int) (*models.OrderItem, []ValidationIssue, error) {
	if input.Quantity <= 0 {
		return nil, []ValidationIssue{{
			Code:      constants.IssueQuantityInvalid,
			Message:   "quantity must be greater than zero",
			ItemIndex: intRef(index),
		}}, nil
	}
	product, err := catalog.GetProductWithOptions(input.ProductID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if product == nil {
		return nil, []ValidationIssue{productUnavailableIssue(input.ProductID, index)}, nil
	}
	options, issues := ResolveOptions(product.OptionGroups, input.OptionItemIDs)
	if len(issues) > 0 {
		return nil, withItemIndex(issues, index), nil
	}
	item := &models.OrderItem{
		ProductID:   product.ID,
		Quantity:    input.Quantity,
		ProductName: product.Name,
		ImageURL:    product.ImageURL,
		BasePrice:   models.NewMoneyFromDecimal(product.BasePrice.Decimal),
		Note:        strings.TrimSpace(input.Note),
		Options:     options,
	}
	applyItemPricing(item)
	return item, nil, nil
}

func productUnavailableIssue(productID uint, index int) ValidationIssue {
	return ValidationIssue{
		Code:      constants.IssueProductUnavailable,
		Message:   fmt.Sprintf("product %d is not available", productID),
		ItemIndex: intRef(index),
	}
}

func withItemIndex(issues []ValidationIssue, index int) []ValidationIssue {
	for i := range issues {
		issues[i].ItemIndex = intRef(index)
	}
	return issues
}

func findOrderItem(order *models.Order, itemID uint) int {
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func intRef(v int) *int {
	return &v
}

package service

import (
	"github.com/cafe-next/internal/models"

	"github.com/shopspring/decimal"
)

// LinePrice 订单项价格
type LinePrice struct {
	OptionPrice models.Money
	UnitPrice   models.Money
	TotalPrice  models.Money
}

// OrderTotals 订单金额汇总
type OrderTotals struct {
	Subtotal       models.Money
	DiscountAmount models.Money
	ShippingFee    models.Money
	FinalAmount    models.Money
}

// CalculateLinePrice 由基础价与选项快照计算订单项价格
func CalculateLinePrice(basePrice models.Money, options []models.OrderItemOption, quantity int) LinePrice {
	optionPrice := decimal.Zero
	for _, opt := range options {
		optionPrice = optionPrice.Add(opt.PriceAdjustment.Decimal)
	}
	unitPrice := basePrice.Decimal.Add(optionPrice)
	totalPrice := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return LinePrice{
		OptionPrice: models.NewMoneyFromDecimal(optionPrice),
		UnitPrice:   models.NewMoneyFromDecimal(unitPrice),
		TotalPrice:  models.NewMoneyFromDecimal(totalPrice),
	}
}

// CalculateSubtotal 汇总订单项小计
func CalculateSubtotal(items []models.OrderItem) models.Money {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice.Decimal)
	}
	return models.NewMoneyFromDecimal(subtotal)
}

// CalculateOrderTotals 计算订单应付金额：max(0, 小计 - 优惠 + 配送费)，优惠不超过小计
func CalculateOrderTotals(items []models.OrderItem, discount, shippingFee models.Money) OrderTotals {
	subtotal := CalculateSubtotal(items)
	if discount.Decimal.GreaterThan(subtotal.Decimal) {
		discount = subtotal
	}
	final := subtotal.Decimal.Sub(discount.Decimal).Add(shippingFee.Decimal)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return OrderTotals{
		Subtotal:       subtotal,
		DiscountAmount: models.NewMoneyFromDecimal(discount.Decimal),
		ShippingFee:    models.NewMoneyFromDecimal(shippingFee.Decimal),
		FinalAmount:    models.NewMoneyFromDecimal(final),
	}
}

// applyItemPricing 将价格写回订单项
func applyItemPricing(item *models.OrderItem) {
	line := CalculateLinePrice(item.BasePrice, item.Options, item.Quantity)
	item.OptionPrice = line.OptionPrice
	item.UnitPrice = line.UnitPrice
	item.TotalPrice = line.TotalPrice
}

// applyOrderTotals 按当前订单项重新计算订单金额
func applyOrderTotals(order *models.Order) {
	totals := CalculateOrderTotals(order.Items, order.DiscountAmount, order.ShippingFee)
	order.Subtotal = totals.Subtotal
	order.DiscountAmount = totals.DiscountAmount
	order.ShippingFee = totals.ShippingFee
	order.FinalAmount = totals.FinalAmount
}

package service

import (
	"errors"
	"testing"
	"time"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"

	"gorm.io/gorm"
)

func TestCreateOrderSnapshotsItemsAndTotals(t *testing.T) {
	f := setupOrderServiceTest(t, 15000)
	c := f.catalog

	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items: []OrderItemInput{
			{ProductID: c.Latte.ID, Quantity: 2, OptionItemIDs: []uint{c.Large.ID, c.Oat.ID, c.Vanilla.ID}},
		},
		Note: "  less ice  ",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != constants.OrderStatusDraft {
		t.Fatalf("expected draft, got %s", order.Status)
	}
	if order.Note != "less ice" {
		t.Fatalf("unexpected note: %q", order.Note)
	}
	if len(order.Items) != 1 || len(order.Items[0].Options) != 3 {
		t.Fatalf("unexpected items: %+v", order.Items)
	}
	item := order.Items[0]
	assertMoney(t, "option price", item.OptionPrice, 17000)
	assertMoney(t, "unit price", item.UnitPrice, 62000)
	assertMoney(t, "total price", item.TotalPrice, 124000)
	assertMoney(t, "subtotal", order.Subtotal, 124000)
	assertMoney(t, "shipping", order.ShippingFee, 15000)
	assertMoney(t, "final", order.FinalAmount, 139000)

	if err := f.db.Model(&models.Product{}).Where("id = ?", c.Latte.ID).
		Update("base_price", money(99000)).Error; err != nil {
		t.Fatalf("update catalog price failed: %v", err)
	}
	if err := f.db.Model(&models.ProductOptionItem{}).Where("id = ?", c.Large.ID).
		Update("name", "Venti").Error; err != nil {
		t.Fatalf("rename option failed: %v", err)
	}

	reloaded, err := f.svc.GetOrder(order.ID, 7)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	assertMoney(t, "snapshot base price", reloaded.Items[0].BasePrice, 45000)
	assertMoney(t, "snapshot total", reloaded.Items[0].TotalPrice, 124000)
	if reloaded.Items[0].Options[0].ItemName != "Large" {
		t.Fatalf("expected option name snapshot, got %s", reloaded.Items[0].Options[0].ItemName)
	}
}

func TestCreateOrderAutoSelectsDefaultAndSkipsUnmetDependency(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	c := f.catalog

	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []OrderItemInput{{ProductID: c.Latte.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	options := order.Items[0].Options
	if len(options) != 1 || options[0].OptionItemID != c.Small.ID {
		t.Fatalf("expected default size only, got %+v", options)
	}

	_, err = f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []OrderItemInput{{ProductID: c.Latte.ID, Quantity: 1, OptionItemIDs: []uint{c.Vanilla.ID}}},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validationErr.Issues) != 1 || validationErr.Issues[0].Code != constants.IssueOptionInvalid {
		t.Fatalf("expected dependent option reported invalid, got %+v", validationErr.Issues)
	}
}

func TestCreateOrderAccumulatesValidationIssues(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	c := f.catalog

	_, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items: []OrderItemInput{
			{ProductID: c.Americano.ID, Quantity: 1},
			{ProductID: c.Latte.ID, Quantity: 1, OptionItemIDs: []uint{c.Oat.ID, c.Almond.ID, 9999}},
			{ProductID: c.Latte.ID, Quantity: 0},
		},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation match")
	}
	codes := map[string]int{}
	for _, issue := range validationErr.Issues {
		codes[issue.Code]++
		if issue.ItemIndex == nil {
			t.Fatalf("expected item index on issue %+v", issue)
		}
	}
	if codes[constants.IssueOptionGroupRequired] != 1 ||
		codes[constants.IssueOptionSingleOnly] != 1 ||
		codes[constants.IssueOptionInvalid] != 1 ||
		codes[constants.IssueQuantityInvalid] != 1 {
		t.Fatalf("unexpected issue codes: %+v", codes)
	}

	var count int64
	if err := f.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no order persisted, got %d", count)
	}
}

func TestCreateOrderAppliesVouchersSequentially(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	fixed := createServiceTestVoucher(t, f.db, "FIXED20K", func(v *models.Voucher) {
		v.DiscountValue = money(20000)
	})
	half := createServiceTestVoucher(t, f.db, "HALF", func(v *models.Voucher) {
		v.DiscountType = constants.DiscountTypePercentage
		v.DiscountValue = money(50)
	})

	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID:     7,
		Items:      []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
		VoucherIDs: []uint{fixed.ID, half.ID, fixed.ID},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if len(order.Vouchers) != 2 {
		t.Fatalf("expected 2 voucher snapshots, got %d", len(order.Vouchers))
	}
	assertMoney(t, "first discount", order.Vouchers[0].DiscountAmount, 20000)
	assertMoney(t, "second discount", order.Vouchers[1].DiscountAmount, 40000)
	if order.Vouchers[0].ApplyOrder != 1 || order.Vouchers[1].ApplyOrder != 2 {
		t.Fatalf("unexpected apply order: %+v", order.Vouchers)
	}
	assertMoney(t, "discount", order.DiscountAmount, 60000)
	assertMoney(t, "final", order.FinalAmount, 40000)
	if order.VoucherID == nil || *order.VoucherID != fixed.ID {
		t.Fatalf("expected primary voucher %d, got %v", fixed.ID, order.VoucherID)
	}
	if reloadVoucher(t, f.db, fixed.ID).CurrentUsageCount != 1 || reloadVoucher(t, f.db, half.ID).CurrentUsageCount != 1 {
		t.Fatalf("expected both vouchers consumed once")
	}
}

func TestCreateOrderSkipsUnusableVouchers(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	exhausted := createServiceTestVoucher(t, f.db, "GONE", func(v *models.Voucher) {
		v.UsageLimit = intPtr(1)
		v.CurrentUsageCount = 1
	})
	minimum := createServiceTestVoucher(t, f.db, "BIGSPEND", func(v *models.Voucher) {
		v.MinOrderValue = money(500000)
	})
	valid := createServiceTestVoucher(t, f.db, "OK10K", nil)

	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID:     7,
		Items:      []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
		VoucherIDs: []uint{exhausted.ID, minimum.ID, 424242, valid.ID},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if len(order.Vouchers) != 1 || order.Vouchers[0].VoucherID != valid.ID || order.Vouchers[0].ApplyOrder != 1 {
		t.Fatalf("expected only valid voucher applied first, got %+v", order.Vouchers)
	}
	assertMoney(t, "final", order.FinalAmount, 90000)
	if reloadVoucher(t, f.db, exhausted.ID).CurrentUsageCount != 1 {
		t.Fatalf("exhausted voucher must not change")
	}
}

func TestCheckoutEmptyDraftKeepsDraft(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	order, err := f.svc.CreateOrder(CreateOrderInput{UserID: 7})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err = f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7, AddressID: f.address.ID})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.Issues[0].Code != constants.IssueOrderItemsEmpty {
		t.Fatalf("unexpected issue: %+v", validationErr.Issues)
	}
	current, err := f.svc.GetOrder(order.ID, 7)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if current.Status != constants.OrderStatusDraft {
		t.Fatalf("expected draft, got %s", current.Status)
	}
}

func TestCheckoutRequiresAddress(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err = f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7, AddressID: 9999})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Issues[0].Code != constants.IssueAddressInvalid {
		t.Fatalf("expected invalid address, got %v", err)
	}
}

func TestCheckoutAppliesVoucherAndMovesToPending(t *testing.T) {
	f := setupOrderServiceTest(t, 15000)
	voucher := createServiceTestVoucher(t, f.db, "WELCOME", func(v *models.Voucher) {
		v.UsageLimitPerUser = intPtr(1)
	})
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	checkedOut, err := f.svc.Checkout(CheckoutInput{
		OrderID:     order.ID,
		UserID:      7,
		AddressID:   f.address.ID,
		VoucherCode: "welcome",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if checkedOut.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending, got %s", checkedOut.Status)
	}
	if checkedOut.ShippingAddress != "12 Bean Street" || checkedOut.RecipientName != "Linh" {
		t.Fatalf("address not snapshotted: %+v", checkedOut)
	}
	assertMoney(t, "discount", checkedOut.DiscountAmount, 10000)
	assertMoney(t, "final", checkedOut.FinalAmount, 105000)
	if len(checkedOut.Vouchers) != 1 || checkedOut.Vouchers[0].Code != "WELCOME" {
		t.Fatalf("unexpected voucher snapshots: %+v", checkedOut.Vouchers)
	}
	if reloadVoucher(t, f.db, voucher.ID).CurrentUsageCount != 1 {
		t.Fatalf("expected usage count 1")
	}
	usage, err := repository.NewVoucherUsageRepository(f.db).Get(voucher.ID, 7)
	if err != nil || usage == nil || usage.UsageCount != 1 {
		t.Fatalf("expected per-user usage 1, got %+v err=%v", usage, err)
	}

	_, err = f.svc.AddItem(AddOrderItemInput{
		OrderID: order.ID,
		UserID:  7,
		Item:    OrderItemInput{ProductID: f.catalog.Platter.ID, Quantity: 1},
	})
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected state conflict editing pending order, got %v", err)
	}
}

func TestCheckoutRejectsInvalidVoucherAndRollsBack(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	createServiceTestVoucher(t, f.db, "OLD", func(v *models.Voucher) {
		v.StartDate = time.Now().Add(-48 * time.Hour)
		v.EndDate = time.Now().Add(-24 * time.Hour)
	})
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err = f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7, AddressID: f.address.ID, VoucherCode: "OLD"})
	var rejection *VoucherRejection
	if !errors.As(err, &rejection) || rejection.Reason != constants.VoucherReasonExpired {
		t.Fatalf("expected expired rejection, got %v", err)
	}
	current, err := f.svc.GetOrder(order.ID, 7)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if current.Status != constants.OrderStatusDraft || current.ShippingAddress != "" {
		t.Fatalf("expected untouched draft, got status=%s address=%q", current.Status, current.ShippingAddress)
	}
}

func TestCheckoutRejectsVoucherAlreadyOnOrder(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	voucher := createServiceTestVoucher(t, f.db, "TWICE", nil)
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID:     7,
		Items:      []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
		VoucherIDs: []uint{voucher.ID},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err = f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7, AddressID: f.address.ID, VoucherID: voucher.ID})
	var rejection *VoucherRejection
	if !errors.As(err, &rejection) || rejection.Reason != constants.VoucherReasonAlreadyApplied {
		t.Fatalf("expected already applied, got %v", err)
	}
	if reloadVoucher(t, f.db, voucher.ID).CurrentUsageCount != 1 {
		t.Fatalf("usage must stay at 1")
	}
}

func TestCancelPendingOrderRestoresVoucherUsage(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	voucher := createServiceTestVoucher(t, f.db, "CANCELME", func(v *models.Voucher) {
		v.UsageLimitPerUser = intPtr(2)
	})
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7, AddressID: f.address.ID, VoucherID: voucher.ID}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	cancelled, err := f.svc.Cancel(CancelOrderInput{OrderID: order.ID, UserID: 7, Reason: " changed my mind "})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("expected cancelled with timestamp, got %+v", cancelled)
	}
	if cancelled.CancelReason != "changed my mind" {
		t.Fatalf("unexpected reason %q", cancelled.CancelReason)
	}
	assertMoney(t, "discount", cancelled.DiscountAmount, 0)
	assertMoney(t, "final", cancelled.FinalAmount, 100000)
	if len(cancelled.Vouchers) != 1 {
		t.Fatalf("voucher snapshot must remain")
	}
	assertMoney(t, "snapshot discount", cancelled.Vouchers[0].DiscountAmount, 10000)
	if reloadVoucher(t, f.db, voucher.ID).CurrentUsageCount != 0 {
		t.Fatalf("expected usage restored")
	}
	usage, err := repository.NewVoucherUsageRepository(f.db).Get(voucher.ID, 7)
	if err != nil || usage != nil {
		t.Fatalf("expected per-user usage removed, got %+v err=%v", usage, err)
	}
}

func TestCancelPaidOrderIsStateConflict(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7, AddressID: f.address.ID}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	paid, err := f.svc.MarkPaid(order.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.OrderStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid with timestamp, got %+v", paid)
	}

	_, err = f.svc.Cancel(CancelOrderInput{OrderID: order.ID, UserID: 7})
	var conflict *StateConflictError
	if !errors.As(err, &conflict) || conflict.Status != constants.OrderStatusPaid {
		t.Fatalf("expected state conflict from paid, got %v", err)
	}
}

func TestOrderLifecycleThroughDelivery(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7, AddressID: f.address.ID}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if _, err := f.svc.Complete(order.ID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected conflict completing pending order, got %v", err)
	}

	steps := []struct {
		name string
		run  func(uint) (*models.Order, error)
		want constants.OrderStatus
	}{
		{"confirm", f.svc.Confirm, constants.OrderStatusConfirmed},
		{"deliver", f.svc.StartDelivery, constants.OrderStatusDelivering},
		{"complete", f.svc.Complete, constants.OrderStatusCompleted},
	}
	for _, step := range steps {
		current, err := step.run(order.ID)
		if err != nil {
			t.Fatalf("%s failed: %v", step.name, err)
		}
		if current.Status != step.want {
			t.Fatalf("%s: expected %s, got %s", step.name, step.want, current.Status)
		}
	}
	if err := f.svc.Delete(order.ID, 7); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected conflict deleting completed order, got %v", err)
	}
}

func TestEditDraftItemsRecomputesTotals(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	c := f.catalog
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []OrderItemInput{{ProductID: c.Latte.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	order, err = f.svc.AddItem(AddOrderItemInput{
		OrderID: order.ID,
		UserID:  7,
		Item:    OrderItemInput{ProductID: c.Americano.ID, Quantity: 2, OptionItemIDs: []uint{c.Iced.ID}},
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	assertMoney(t, "subtotal after add", order.Subtotal, 115000)

	qty := 3
	options := []uint{c.Large.ID}
	order, err = f.svc.UpdateItem(UpdateOrderItemInput{
		OrderID:       order.ID,
		UserID:        7,
		ItemID:        order.Items[0].ID,
		Quantity:      &qty,
		OptionItemIDs: &options,
	})
	if err != nil {
		t.Fatalf("update item failed: %v", err)
	}
	assertMoney(t, "latte total", order.Items[0].TotalPrice, 165000)
	if len(order.Items[0].Options) != 1 || order.Items[0].Options[0].OptionItemID != c.Large.ID {
		t.Fatalf("unexpected options after update: %+v", order.Items[0].Options)
	}
	assertMoney(t, "subtotal after update", order.Subtotal, 235000)

	order, err = f.svc.RemoveItem(order.ID, 7, order.Items[1].ID)
	if err != nil {
		t.Fatalf("remove item failed: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(order.Items))
	}
	assertMoney(t, "final after remove", order.FinalAmount, 165000)

	if _, err := f.svc.RemoveItem(order.ID, 7, 999); !errors.Is(err, ErrOrderItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}
	if _, err := f.svc.AddItem(AddOrderItemInput{OrderID: order.ID, UserID: 8, Item: OrderItemInput{ProductID: c.Latte.ID, Quantity: 1}}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected other user's order hidden, got %v", err)
	}
}

func TestUpdateOrderDetailsOnPending(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID:    7,
		Items:     []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
		AddressID: f.address.ID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7}); err != nil {
		t.Fatalf("checkout with stored address failed: %v", err)
	}

	note := "ring twice"
	updated, err := f.svc.UpdateOrder(UpdateOrderInput{OrderID: order.ID, UserID: 7, Note: &note})
	if err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	if updated.Note != note || updated.Status != constants.OrderStatusPending {
		t.Fatalf("unexpected order after update: %+v", updated)
	}

	if _, err := f.svc.Confirm(order.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := f.svc.UpdateOrder(UpdateOrderInput{OrderID: order.ID, UserID: 7, Note: &note}); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected conflict updating confirmed order, got %v", err)
	}
}

func TestDeleteDraftOrderReleasesVouchers(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	voucher := createServiceTestVoucher(t, f.db, "DRAFTY", nil)
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID:     7,
		Items:      []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
		VoucherIDs: []uint{voucher.ID},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := f.svc.Delete(order.ID, 7); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := f.svc.GetOrder(order.ID, 7); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order removed, got %v", err)
	}
	if reloadVoucher(t, f.db, voucher.ID).CurrentUsageCount != 0 {
		t.Fatalf("expected voucher usage released")
	}
}

func TestPreviewVoucher(t *testing.T) {
	f := setupOrderServiceTest(t, 15000)
	voucher := createServiceTestVoucher(t, f.db, "PEEK", func(v *models.Voucher) {
		v.DiscountType = constants.DiscountTypePercentage
		v.DiscountValue = money(10)
		v.MaxDiscountAmount = money(8000)
	})

	subtotal := money(100000)
	preview, err := f.svc.PreviewVoucher(PreviewVoucherInput{UserID: 7, Code: "peek", Subtotal: &subtotal})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !preview.Valid || preview.VoucherID != voucher.ID {
		t.Fatalf("expected valid preview, got %+v", preview)
	}
	assertMoney(t, "preview discount", preview.DiscountAmount, 8000)
	assertMoney(t, "preview final", preview.FinalAmount, 107000)
	if reloadVoucher(t, f.db, voucher.ID).CurrentUsageCount != 0 {
		t.Fatalf("preview must not consume usage")
	}

	if _, err := f.svc.PreviewVoucher(PreviewVoucherInput{UserID: 7}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error without voucher input, got %v", err)
	}
	if _, err := f.svc.PreviewVoucher(PreviewVoucherInput{UserID: 7, Code: "PEEK"}); !errors.Is(err, ErrPreviewAmountEmpty) {
		t.Fatalf("expected amount required, got %v", err)
	}

	missing, err := f.svc.PreviewVoucher(PreviewVoucherInput{UserID: 7, Code: "NOPE", Subtotal: &subtotal})
	if err != nil {
		t.Fatalf("preview missing failed: %v", err)
	}
	if missing.Valid || missing.Reason != constants.VoucherReasonNotFound {
		t.Fatalf("expected not found, got %+v", missing)
	}
}

func TestEditDraftItemsRepricesVouchers(t *testing.T) {
	f := setupOrderServiceTest(t, 15000)
	c := f.catalog
	half := createServiceTestVoucher(t, f.db, "HALF", func(v *models.Voucher) {
		v.DiscountType = constants.DiscountTypePercentage
		v.DiscountValue = money(50)
	})
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID:     7,
		Items:      []OrderItemInput{{ProductID: c.Platter.ID, Quantity: 1}},
		VoucherIDs: []uint{half.ID},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	assertMoney(t, "initial discount", order.DiscountAmount, 50000)
	platterItemID := order.Items[0].ID

	order, err = f.svc.AddItem(AddOrderItemInput{
		OrderID: order.ID,
		UserID:  7,
		Item:    OrderItemInput{ProductID: c.Americano.ID, Quantity: 1, OptionItemIDs: []uint{c.Hot.ID}},
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	assertMoney(t, "discount after add", order.DiscountAmount, 67500)

	order, err = f.svc.RemoveItem(order.ID, 7, platterItemID)
	if err != nil {
		t.Fatalf("remove item failed: %v", err)
	}
	assertMoney(t, "subtotal after remove", order.Subtotal, 35000)
	assertMoney(t, "discount after remove", order.DiscountAmount, 17500)
	assertMoney(t, "snapshot keeps applied amount", order.Vouchers[0].DiscountAmount, 50000)
	assertMoney(t, "final after remove", order.FinalAmount, 32500)

	checkedOut, err := f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7, AddressID: f.address.ID})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if checkedOut.DiscountAmount.Decimal.GreaterThan(checkedOut.Subtotal.Decimal) {
		t.Fatalf("discount %s exceeds subtotal %s", checkedOut.DiscountAmount, checkedOut.Subtotal)
	}
	want := checkedOut.Subtotal.Decimal.Sub(checkedOut.DiscountAmount.Decimal).Add(checkedOut.ShippingFee.Decimal)
	if !checkedOut.FinalAmount.Decimal.Equal(want) {
		t.Fatalf("final %s should equal subtotal - discount + shipping (%s)", checkedOut.FinalAmount, want)
	}
	assertMoney(t, "checkout final", checkedOut.FinalAmount, 32500)
}

func TestEditDraftItemsRepricesFixedVoucherInOrder(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	c := f.catalog
	fixed := createServiceTestVoucher(t, f.db, "FIXED60K", func(v *models.Voucher) {
		v.DiscountValue = money(60000)
	})
	capped := createServiceTestVoucher(t, f.db, "HALFCAP", func(v *models.Voucher) {
		v.DiscountType = constants.DiscountTypePercentage
		v.DiscountValue = money(50)
		v.MaxDiscountAmount = money(15000)
	})
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID:     7,
		Items:      []OrderItemInput{{ProductID: c.Platter.ID, Quantity: 1}},
		VoucherIDs: []uint{fixed.ID, capped.ID},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	assertMoney(t, "initial discount", order.DiscountAmount, 75000)

	qty := 2
	order, err = f.svc.UpdateItem(UpdateOrderItemInput{OrderID: order.ID, UserID: 7, ItemID: order.Items[0].ID, Quantity: &qty})
	if err != nil {
		t.Fatalf("update item failed: %v", err)
	}
	assertMoney(t, "discount after update", order.DiscountAmount, 75000)
	assertMoney(t, "final after update", order.FinalAmount, 125000)

	order, err = f.svc.AddItem(AddOrderItemInput{
		OrderID: order.ID,
		UserID:  7,
		Item:    OrderItemInput{ProductID: c.Americano.ID, Quantity: 1, OptionItemIDs: []uint{c.Iced.ID}},
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	order, err = f.svc.RemoveItem(order.ID, 7, order.Items[0].ID)
	if err != nil {
		t.Fatalf("remove item failed: %v", err)
	}
	assertMoney(t, "fixed capped at remaining", order.DiscountAmount, 35000)
	assertMoney(t, "final", order.FinalAmount, 0)
	assertMoney(t, "first snapshot", order.Vouchers[0].DiscountAmount, 60000)
	assertMoney(t, "second snapshot", order.Vouchers[1].DiscountAmount, 15000)
}

func failOrderVoucherWrites(t *testing.T, db *gorm.DB) {
	t.Helper()
	name := "test:fail_order_voucher_writes"
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == "order_vouchers" {
			_ = tx.AddError(errors.New("order voucher write failed"))
		}
	})
	if err != nil {
		t.Fatalf("register callback failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Callback().Create().Remove(name)
	})
}

func TestCreateOrderSnapshotFailureReleasesVouchers(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	public := createServiceTestVoucher(t, f.db, "PERUSER", func(v *models.Voucher) {
		v.UsageLimitPerUser = intPtr(1)
	})
	private := createServiceTestVoucher(t, f.db, "GIFT", func(v *models.Voucher) { v.IsPublic = false })
	userVoucherRepo := repository.NewUserVoucherRepository(f.db)
	if _, err := userVoucherRepo.Assign(&models.UserVoucher{UserID: 7, VoucherID: private.ID, AssignedAt: time.Now()}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	failOrderVoucherWrites(t, f.db)

	_, err := f.svc.CreateOrder(CreateOrderInput{
		UserID:     7,
		Items:      []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
		VoucherIDs: []uint{public.ID, private.ID},
	})
	if !errors.Is(err, ErrOrderCreateFailed) {
		t.Fatalf("expected create failure, got %v", err)
	}

	if reloadVoucher(t, f.db, public.ID).CurrentUsageCount != 0 || reloadVoucher(t, f.db, private.ID).CurrentUsageCount != 0 {
		t.Fatalf("usage counters must be unchanged")
	}
	var usageCount int64
	f.db.Model(&models.VoucherUsage{}).Count(&usageCount)
	if usageCount != 0 {
		t.Fatalf("expected no per-user usage rows, got %d", usageCount)
	}
	assignment, err := userVoucherRepo.Get(7, private.ID)
	if err != nil || assignment == nil || assignment.IsUsed {
		t.Fatalf("expected assignment unused, got %+v err=%v", assignment, err)
	}
	var orderCount int64
	f.db.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 0 {
		t.Fatalf("expected no order persisted, got %d", orderCount)
	}
}

func TestCheckoutSnapshotFailureReleasesVoucher(t *testing.T) {
	f := setupOrderServiceTest(t, 0)
	voucher := createServiceTestVoucher(t, f.db, "LATEFAIL", func(v *models.Voucher) {
		v.UsageLimitPerUser = intPtr(1)
	})
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	failOrderVoucherWrites(t, f.db)

	_, err = f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7, AddressID: f.address.ID, VoucherID: voucher.ID})
	if !errors.Is(err, ErrOrderUpdateFailed) {
		t.Fatalf("expected update failure, got %v", err)
	}
	if reloadVoucher(t, f.db, voucher.ID).CurrentUsageCount != 0 {
		t.Fatalf("usage counter must be unchanged")
	}
	usage, err := repository.NewVoucherUsageRepository(f.db).Get(voucher.ID, 7)
	if err != nil || usage != nil {
		t.Fatalf("expected no per-user usage, got %+v err=%v", usage, err)
	}
	current, err := f.svc.GetOrder(order.ID, 7)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if current.Status != constants.OrderStatusDraft || len(current.Vouchers) != 0 {
		t.Fatalf("expected untouched draft, got status=%s vouchers=%d", current.Status, len(current.Vouchers))
	}
}

func TestCheckoutRejectsVoucherWithoutRemainingAmount(t *testing.T) {
	f := setupOrderServiceTest(t, 15000)
	full := createServiceTestVoucher(t, f.db, "FULL", func(v *models.Voucher) {
		v.DiscountValue = money(100000)
	})
	extra := createServiceTestVoucher(t, f.db, "EXTRA", nil)
	order, err := f.svc.CreateOrder(CreateOrderInput{
		UserID:     7,
		Items:      []OrderItemInput{{ProductID: f.catalog.Platter.ID, Quantity: 1}},
		VoucherIDs: []uint{full.ID},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	assertMoney(t, "final", order.FinalAmount, 15000)

	_, err = f.svc.Checkout(CheckoutInput{OrderID: order.ID, UserID: 7, AddressID: f.address.ID, VoucherCode: "EXTRA"})
	var rejection *VoucherRejection
	if !errors.As(err, &rejection) || rejection.Reason != constants.VoucherReasonNoRemainingAmount {
		t.Fatalf("expected no remaining amount, got %v", err)
	}
	if reloadVoucher(t, f.db, extra.ID).CurrentUsageCount != 0 {
		t.Fatalf("extra voucher must not consume a slot")
	}

	preview, err := f.svc.PreviewVoucher(PreviewVoucherInput{UserID: 7, OrderID: order.ID, Code: "EXTRA"})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.Valid || preview.Reason != constants.VoucherReasonNoRemainingAmount {
		t.Fatalf("expected preview rejected, got %+v", preview)
	}
}

package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/queue"
	"github.com/cafe-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// coffeeCatalog 测试用商品目录
type coffeeCatalog struct {
	Latte     *models.Product
	Small     models.ProductOptionItem
	Large     models.ProductOptionItem
	Oat       models.ProductOptionItem
	Almond    models.ProductOptionItem
	Vanilla   models.ProductOptionItem
	Caramel   models.ProductOptionItem
	Americano *models.Product
	Hot       models.ProductOptionItem
	Iced      models.ProductOptionItem
	Platter   *models.Product
}

type orderServiceFixture struct {
	db        *gorm.DB
	svc       *OrderService
	validator *VoucherValidator
	ledger    *VoucherLedger
	catalog   coffeeCatalog
	address   *models.UserAddress
}

func setupServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 共享内存库单连接串行化事务，避免 SQLITE_LOCKED
	sqlDB.SetMaxOpenConns(1)
	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	models.DB = db
	return db
}

func setupOrderServiceTest(t *testing.T, shippingFee int64) *orderServiceFixture {
	t.Helper()
	db := setupServiceTestDB(t, "order_service_test")

	voucherRepo := repository.NewVoucherRepository(db)
	usageRepo := repository.NewVoucherUsageRepository(db)
	userVoucherRepo := repository.NewUserVoucherRepository(db)
	validator := NewVoucherValidator(voucherRepo, usageRepo, userVoucherRepo)
	ledger := NewVoucherLedger(voucherRepo, usageRepo, userVoucherRepo)

	codeGen, err := NewSnowflakeCodeGenerator(1, "t")
	if err != nil {
		t.Fatalf("init code generator failed: %v", err)
	}
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("init queue client failed: %v", err)
	}

	svc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewCatalogRepository(db),
		repository.NewAddressRepository(db),
		voucherRepo,
		validator,
		ledger,
		queueClient,
		codeGen,
		decimal.NewFromInt(shippingFee),
	)

	address := &models.UserAddress{
		UserID:        7,
		RecipientName: "Linh",
		PhoneNumber:   "0900000000",
		AddressLine:   "12 Bean Street",
	}
	if err := db.Create(address).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}

	return &orderServiceFixture{
		db:        db,
		svc:       svc,
		validator: validator,
		ledger:    ledger,
		catalog:   createCoffeeCatalog(t, db),
		address:   address,
	}
}

func money(v int64) models.Money {
	return models.NewMoneyFromInt(v)
}

func createCoffeeCatalog(t *testing.T, db *gorm.DB) coffeeCatalog {
	t.Helper()
	latte := &models.Product{
		Name:      "Latte",
		BasePrice: money(45000),
		SortOrder: 1,
		OptionGroups: []models.ProductOptionGroup{
			{
				Name:       "Size",
				IsRequired: true,
				SortOrder:  1,
				Items: []models.ProductOptionItem{
					{Name: "Small", IsDefault: true, SortOrder: 1},
					{Name: "Large", PriceAdjustment: money(10000), SortOrder: 2},
				},
			},
			{
				Name:      "Milk",
				SortOrder: 2,
				Items: []models.ProductOptionItem{
					{Name: "Oat", PriceAdjustment: money(5000), SortOrder: 1},
					{Name: "Almond", PriceAdjustment: money(6000), SortOrder: 2},
				},
			},
		},
	}
	if err := db.Create(latte).Error; err != nil {
		t.Fatalf("create latte failed: %v", err)
	}
	size := latte.OptionGroups[0]
	milk := latte.OptionGroups[1]

	oatID := milk.Items[0].ID
	syrup := models.ProductOptionGroup{
		ProductID:             latte.ID,
		Name:                  "Syrup",
		AllowMultiple:         true,
		DependsOnOptionItemID: &oatID,
		SortOrder:             3,
		Items: []models.ProductOptionItem{
			{Name: "Vanilla", PriceAdjustment: money(2000), SortOrder: 1},
			{Name: "Caramel", PriceAdjustment: money(3000), SortOrder: 2},
		},
	}
	if err := db.Create(&syrup).Error; err != nil {
		t.Fatalf("create syrup group failed: %v", err)
	}

	americano := &models.Product{
		Name:      "Americano",
		BasePrice: money(35000),
		SortOrder: 2,
		OptionGroups: []models.ProductOptionGroup{
			{
				Name:       "Temperature",
				IsRequired: true,
				SortOrder:  1,
				Items: []models.ProductOptionItem{
					{Name: "Hot", SortOrder: 1},
					{Name: "Iced", SortOrder: 2},
				},
			},
		},
	}
	if err := db.Create(americano).Error; err != nil {
		t.Fatalf("create americano failed: %v", err)
	}

	platter := &models.Product{Name: "Office Platter", BasePrice: money(100000), SortOrder: 3}
	if err := db.Create(platter).Error; err != nil {
		t.Fatalf("create platter failed: %v", err)
	}

	return coffeeCatalog{
		Latte:     latte,
		Small:     size.Items[0],
		Large:     size.Items[1],
		Oat:       milk.Items[0],
		Almond:    milk.Items[1],
		Vanilla:   syrup.Items[0],
		Caramel:   syrup.Items[1],
		Americano: americano,
		Hot:       americano.OptionGroups[0].Items[0],
		Iced:      americano.OptionGroups[0].Items[1],
		Platter:   platter,
	}
}

func createServiceTestVoucher(t *testing.T, db *gorm.DB, code string, mutate func(v *models.Voucher)) *models.Voucher {
	t.Helper()
	now := time.Now()
	voucher := &models.Voucher{
		Code:          code,
		DiscountType:  "fixed_amount",
		DiscountValue: money(10000),
		StartDate:     now.Add(-time.Hour),
		EndDate:       now.Add(time.Hour),
		IsActive:      true,
		IsPublic:      true,
		AutoManaged:   true,
	}
	if mutate != nil {
		mutate(voucher)
	}
	if err := db.Create(voucher).Error; err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	return voucher
}

func reloadVoucher(t *testing.T, db *gorm.DB, id uint) *models.Voucher {
	t.Helper()
	var voucher models.Voucher
	if err := db.First(&voucher, id).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	return &voucher
}

func intPtr(v int) *int {
	return &v
}

func assertMoney(t *testing.T, label string, got models.Money, want int64) {
	t.Helper()
	if !got.Decimal.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("%s: expected %d, got %s", label, want, got.String())
	}
}

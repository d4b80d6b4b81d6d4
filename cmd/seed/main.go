package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"
	"github.com/cafe-next/internal/service"

	"github.com/olekukonko/tablewriter"
)

const (
	seedUserID      uint = 1
	seedGuestUserID uint = 2
)

type seedOptionItem struct {
	name       string
	adjustment int64
	isDefault  bool
}

type seedOptionGroup struct {
	name          string
	required      bool
	allowMultiple bool
	// dependsOn 依赖的选项名（同一商品内）
	dependsOn string
	items     []seedOptionItem
}

type seedProduct struct {
	name        string
	description string
	price       int64
	groups      []seedOptionGroup
}

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config.yml）")
	flag.Parse()

	// 连接数据库
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	products := []seedProduct{
		{
			name:        "Latte",
			description: "Espresso with steamed milk",
			price:       45000,
			groups: []seedOptionGroup{
				{name: "Size", required: true, items: []seedOptionItem{
					{name: "Small", isDefault: true},
					{name: "Large", adjustment: 10000},
				}},
				{name: "Milk", items: []seedOptionItem{
					{name: "Oat", adjustment: 5000},
					{name: "Almond", adjustment: 6000},
				}},
				{name: "Syrup", allowMultiple: true, dependsOn: "Oat", items: []seedOptionItem{
					{name: "Vanilla", adjustment: 2000},
					{name: "Caramel", adjustment: 3000},
				}},
			},
		},
		{
			name:        "Americano",
			description: "Espresso with hot water",
			price:       35000,
			groups: []seedOptionGroup{
				{name: "Temperature", required: true, items: []seedOptionItem{
					{name: "Hot"},
					{name: "Iced"},
				}},
			},
		},
		{
			name:        "Cold Brew",
			description: "Steeped for 18 hours",
			price:       50000,
			groups: []seedOptionGroup{
				{name: "Sweetness", items: []seedOptionItem{
					{name: "No sugar", isDefault: true},
					{name: "Less sugar"},
					{name: "Normal"},
				}},
			},
		},
		{
			name:        "Croissant",
			description: "Butter croissant",
			price:       30000,
		},
	}

	for _, item := range products {
		if err := seedCatalogProduct(item); err != nil {
			stdLog.Printf("Failed to create product %s: %v", item.name, err)
			continue
		}
		stdLog.Printf("Seeded product: %s", item.name)
	}

	addresses := []models.UserAddress{
		{UserID: seedUserID, RecipientName: "Linh", PhoneNumber: "0900000001", AddressLine: "12 Bean Street", IsDefault: true},
		{UserID: seedUserID, RecipientName: "Linh (office)", PhoneNumber: "0900000001", AddressLine: "88 Roast Avenue, floor 5"},
		{UserID: seedGuestUserID, RecipientName: "Minh", PhoneNumber: "0900000002", AddressLine: "3 Arabica Lane"},
	}
	for _, address := range addresses {
		row := address
		if err := models.DB.Where("user_id = ? AND address_line = ?", row.UserID, row.AddressLine).
			FirstOrCreate(&row).Error; err != nil {
			stdLog.Printf("Failed to create address %s: %v", address.AddressLine, err)
		}
	}

	voucherAdmin := service.NewVoucherAdminService(
		repository.NewVoucherRepository(models.DB),
		repository.NewVoucherUsageRepository(models.DB),
		repository.NewUserVoucherRepository(models.DB),
	)
	now := time.Now()
	isPrivate := false
	vouchers := []service.CreateVoucherInput{
		{
			Code:          "WELCOME20K",
			Description:   "20,000 off any order",
			DiscountType:  constants.DiscountTypeFixedAmount,
			DiscountValue: models.NewMoneyFromInt(20000),
			StartDate:     now.Add(-time.Hour),
			EndDate:       now.AddDate(0, 3, 0),
			UsageLimit:    intPtr(500),
		},
		{
			Code:              "LATTE10",
			Description:       "10% off, capped at 15,000",
			DiscountType:      constants.DiscountTypePercentage,
			DiscountValue:     models.NewMoneyFromInt(10),
			MinOrderValue:     models.NewMoneyFromInt(60000),
			MaxDiscountAmount: models.NewMoneyFromInt(15000),
			StartDate:         now.Add(-time.Hour),
			EndDate:           now.AddDate(0, 1, 0),
			UsageLimitPerUser: intPtr(2),
		},
		{
			Code:          "STAFF40K",
			Description:   "Staff voucher",
			DiscountType:  constants.DiscountTypeFixedAmount,
			DiscountValue: models.NewMoneyFromInt(40000),
			StartDate:     now.Add(-time.Hour),
			EndDate:       now.AddDate(1, 0, 0),
			IsPublic:      &isPrivate,
		},
		{
			Code:          "NEXTMONTH",
			Description:   "Activated by the sweep next month",
			DiscountType:  constants.DiscountTypeFixedAmount,
			DiscountValue: models.NewMoneyFromInt(15000),
			StartDate:     now.AddDate(0, 1, 0),
			EndDate:       now.AddDate(0, 2, 0),
		},
	}
	for _, input := range vouchers {
		voucher, err := voucherAdmin.Create(input)
		if errors.Is(err, service.ErrVoucherCodeExists) {
			stdLog.Printf("Voucher already exists: %s", input.Code)
			continue
		}
		if err != nil {
			stdLog.Printf("Failed to create voucher %s: %v", input.Code, err)
			continue
		}
		if !voucher.IsPublic {
			if _, err := voucherAdmin.Assign(voucher.ID, seedUserID); err != nil {
				stdLog.Printf("Failed to assign voucher %s: %v", voucher.Code, err)
			}
		}
	}

	if err := printVoucherTable(voucherAdmin); err != nil {
		stdLog.Printf("Failed to print vouchers: %v", err)
	}
	stdLog.Printf("Seed completed")
}

func seedCatalogProduct(item seedProduct) error {
	var product models.Product
	err := models.DB.Where("name = ?", item.name).First(&product).Error
	if err == nil {
		return nil
	}
	product = models.Product{
		Name:        item.name,
		Description: item.description,
		BasePrice:   models.NewMoneyFromInt(item.price),
		IsActive:    true,
	}
	if err := models.DB.Create(&product).Error; err != nil {
		return err
	}

	itemIDs := map[string]uint{}
	for groupIndex, groupSeed := range item.groups {
		group := models.ProductOptionGroup{
			ProductID:     product.ID,
			Name:          groupSeed.name,
			IsRequired:    groupSeed.required,
			AllowMultiple: groupSeed.allowMultiple,
			SortOrder:     groupIndex,
		}
		if groupSeed.dependsOn != "" {
			dependsOn, ok := itemIDs[groupSeed.dependsOn]
			if !ok {
				return fmt.Errorf("option group %s depends on unknown option %s", groupSeed.name, groupSeed.dependsOn)
			}
			group.DependsOnOptionItemID = &dependsOn
		}
		if err := models.DB.Create(&group).Error; err != nil {
			return err
		}
		for itemIndex, itemSeed := range groupSeed.items {
			option := models.ProductOptionItem{
				OptionGroupID:   group.ID,
				Name:            itemSeed.name,
				PriceAdjustment: models.NewMoneyFromInt(itemSeed.adjustment),
				IsDefault:       itemSeed.isDefault,
				SortOrder:       itemIndex,
			}
			if err := models.DB.Create(&option).Error; err != nil {
				return err
			}
			itemIDs[itemSeed.name] = option.ID
		}
	}
	return nil
}

func printVoucherTable(voucherAdmin *service.VoucherAdminService) error {
	vouchers, _, err := voucherAdmin.List(repository.VoucherListFilter{Page: 1, PageSize: 100})
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Code", "Type", "Value", "Public", "Active", "Used", "Remaining", "Window")
	for _, voucher := range vouchers {
		remaining := "unlimited"
		if left := voucher.RemainingUsage(); left >= 0 {
			remaining = fmt.Sprintf("%d", left)
		}
		if err := table.Append([]string{
			fmt.Sprintf("%d", voucher.ID),
			voucher.Code,
			voucher.DiscountType,
			voucher.DiscountValue.String(),
			fmt.Sprintf("%t", voucher.IsPublic),
			fmt.Sprintf("%t", voucher.IsActive),
			fmt.Sprintf("%d", voucher.CurrentUsageCount),
			remaining,
			voucher.StartDate.Format("2006-01-02") + " ~ " + voucher.EndDate.Format("2006-01-02"),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func intPtr(v int) *int {
	return &v
}

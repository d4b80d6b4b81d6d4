package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/cafe-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createTestVoucher(t *testing.T, db *gorm.DB, code string, mutate func(v *models.Voucher)) *models.Voucher {
	t.Helper()
	now := time.Now()
	voucher := &models.Voucher{
		Code:          code,
		DiscountType:  "fixed_amount",
		DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
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

func intPtr(v int) *int {
	return &v
}

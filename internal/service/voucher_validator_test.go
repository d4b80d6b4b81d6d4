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

func setupVoucherEngine(t *testing.T, name string) (*gorm.DB, *VoucherValidator, *VoucherLedger) {
	t.Helper()
	db := setupServiceTestDB(t, name)
	voucherRepo := repository.NewVoucherRepository(db)
	usageRepo := repository.NewVoucherUsageRepository(db)
	userVoucherRepo := repository.NewUserVoucherRepository(db)
	return db,
		NewVoucherValidator(voucherRepo, usageRepo, userVoucherRepo),
		NewVoucherLedger(voucherRepo, usageRepo, userVoucherRepo)
}

func TestVoucherValidatorReasons(t *testing.T) {
	db, validator, _ := setupVoucherEngine(t, "voucher_validator_test")
	now := time.Now()

	createServiceTestVoucher(t, db, "OFF", func(v *models.Voucher) { v.IsActive = false })
	createServiceTestVoucher(t, db, "SOON", func(v *models.Voucher) {
		v.StartDate = now.Add(24 * time.Hour)
		v.EndDate = now.Add(48 * time.Hour)
	})
	createServiceTestVoucher(t, db, "PAST", func(v *models.Voucher) {
		v.StartDate = now.Add(-48 * time.Hour)
		v.EndDate = now.Add(-24 * time.Hour)
	})
	createServiceTestVoucher(t, db, "MIN", func(v *models.Voucher) { v.MinOrderValue = money(200000) })
	createServiceTestVoucher(t, db, "FULL", func(v *models.Voucher) {
		v.UsageLimit = intPtr(3)
		v.CurrentUsageCount = 3
	})
	createServiceTestVoucher(t, db, "VIP", func(v *models.Voucher) { v.IsPublic = false })
	perUser := createServiceTestVoucher(t, db, "ONCE", func(v *models.Voucher) { v.UsageLimitPerUser = intPtr(1) })
	if err := db.Create(&models.VoucherUsage{VoucherID: perUser.ID, UserID: 7, UsageCount: 1, LastUsedAt: now}).Error; err != nil {
		t.Fatalf("create usage failed: %v", err)
	}

	cases := []struct {
		code   string
		userID uint
		reason string
	}{
		{"MISSING", 7, constants.VoucherReasonNotFound},
		{"OFF", 7, constants.VoucherReasonInactive},
		{"SOON", 7, constants.VoucherReasonNotYetValid},
		{"PAST", 7, constants.VoucherReasonExpired},
		{"MIN", 7, constants.VoucherReasonBelowMinimum},
		{"FULL", 7, constants.VoucherReasonGlobalLimitReached},
		{"VIP", 7, constants.VoucherReasonNotAssigned},
		{"VIP", 0, constants.VoucherReasonNotAssigned},
		{"ONCE", 7, constants.VoucherReasonPerUserLimitReached},
	}
	for _, tc := range cases {
		result, err := validator.Validate(tc.code, tc.userID, money(100000))
		if err != nil {
			t.Fatalf("%s: validate error %v", tc.code, err)
		}
		if result.Valid || result.Reason != tc.reason {
			t.Fatalf("%s: expected %s, got %+v", tc.code, tc.reason, result)
		}
		if !result.Discount.Decimal.IsZero() {
			t.Fatalf("%s: rejected voucher must carry zero discount", tc.code)
		}
		var rejection *VoucherRejection
		if !errors.As(result.Rejection(), &rejection) || rejection.Reason != tc.reason {
			t.Fatalf("%s: unexpected rejection %v", tc.code, result.Rejection())
		}
	}

	result, err := validator.Validate("once", 8, money(100000))
	if err != nil {
		t.Fatalf("validate error %v", err)
	}
	if !result.Valid || result.Rejection() != nil {
		t.Fatalf("expected other user to pass, got %+v", result)
	}
	assertMoney(t, "discount", result.Discount, 10000)
}

func TestVoucherValidatorPrivateAssignment(t *testing.T) {
	db, validator, _ := setupVoucherEngine(t, "voucher_validator_private_test")
	voucher := createServiceTestVoucher(t, db, "STAFF", func(v *models.Voucher) { v.IsPublic = false })
	userVoucherRepo := repository.NewUserVoucherRepository(db)
	if _, err := userVoucherRepo.Assign(&models.UserVoucher{UserID: 7, VoucherID: voucher.ID, AssignedAt: time.Now()}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	result, err := validator.ValidateByID(voucher.ID, 7, money(50000))
	if err != nil || !result.Valid {
		t.Fatalf("expected assigned voucher valid, got %+v err=%v", result, err)
	}
	if _, err := userVoucherRepo.MarkUsed(7, voucher.ID, time.Now()); err != nil {
		t.Fatalf("mark used failed: %v", err)
	}
	result, err = validator.ValidateByID(voucher.ID, 7, money(50000))
	if err != nil || result.Reason != constants.VoucherReasonAlreadyUsed {
		t.Fatalf("expected already used, got %+v err=%v", result, err)
	}
}

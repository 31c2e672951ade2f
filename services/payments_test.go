package services

import (
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/models"
)

func TestValidateCapability(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		currency string
		amount   float64
		wantErr  bool
	}{
		{"card XOF in range", "card", "XOF", 5000, false},
		{"card lowercase currency", "card", "xof", 5000, false},
		{"card USD in range", "card", "USD", 50, false},
		{"mobile money XOF in range", "mobile_money", "XOF", 10000, false},
		{"unknown method", "bank_wire", "XOF", 5000, true},
		{"mobile money USD unsupported", "mobile_money", "USD", 50, true},
		{"below minimum", "card", "XOF", 50, true},
		{"above maximum", "mobile_money", "XOF", 3_000_000, true},
		{"zero amount", "card", "EUR", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCapability(tt.method, tt.currency, tt.amount)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCapability(%q, %q, %v) error = %v, wantErr %v",
					tt.method, tt.currency, tt.amount, err, tt.wantErr)
			}
			if err != nil && !IsCategory(err, CategoryValidation) {
				t.Errorf("expected validation category, got %q", ErrorCategory(err))
			}
		})
	}
}

func TestListingFeeAmount(t *testing.T) {
	amount, err := ListingFeeAmount("xof")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 5000 {
		t.Errorf("XOF listing fee = %v, want 5000", amount)
	}

	if _, err := ListingFeeAmount("GBP"); err == nil {
		t.Error("expected error for unsupported currency")
	}
}

func TestSelectCapturablePicksMostRecentHold(t *testing.T) {
	old := models.PaymentIntent{
		Model:           gorm.Model{ID: 1, CreatedAt: time.Now().Add(-2 * time.Hour)},
		PaymentIntentID: "pi_old",
		Status:          models.PaymentIntentRequiresCapture,
	}
	recent := models.PaymentIntent{
		Model:           gorm.Model{ID: 2, CreatedAt: time.Now().Add(-time.Minute)},
		PaymentIntentID: "pi_recent",
		Status:          models.PaymentIntentRequiresCapture,
	}

	intent, reason := selectCapturable([]models.PaymentIntent{old, recent})
	if intent == nil {
		t.Fatalf("expected a capturable intent, got none: %s", reason)
	}
	if intent.PaymentIntentID != "pi_recent" {
		t.Errorf("selected %q, want pi_recent", intent.PaymentIntentID)
	}
}

func TestSelectCapturableSkipsTerminalStates(t *testing.T) {
	intents := []models.PaymentIntent{
		{
			Model:           gorm.Model{ID: 1, CreatedAt: time.Now()},
			PaymentIntentID: "pi_done",
			Status:          models.PaymentIntentSucceeded,
			Captured:        true,
		},
		{
			Model:           gorm.Model{ID: 2, CreatedAt: time.Now()},
			PaymentIntentID: "pi_canceled",
			Status:          models.PaymentIntentCanceled,
		},
	}

	intent, reason := selectCapturable(intents)
	if intent != nil {
		t.Fatalf("expected no capturable intent, got %q", intent.PaymentIntentID)
	}
	if !strings.Contains(reason, "no capturable") {
		t.Errorf("unexpected reason %q", reason)
	}
}

func TestSelectCapturableEmpty(t *testing.T) {
	intent, reason := selectCapturable(nil)
	if intent != nil {
		t.Fatal("expected no intent for empty input")
	}
	if reason == "" {
		t.Error("expected a reason for empty input")
	}
}

func TestSelectSettleableFeePicksPendingMobileMoneyFee(t *testing.T) {
	cardFee := models.Transaction{
		Model:           gorm.Model{ID: 1, CreatedAt: time.Now().Add(-time.Hour)},
		Status:          models.TransactionPending,
		TransactionType: models.TransactionTypeListingFee,
		PaymentIntentID: "pi_card",
	}
	settled := models.Transaction{
		Model:             gorm.Model{ID: 2, CreatedAt: time.Now().Add(-time.Hour)},
		Status:            models.TransactionCompleted,
		TransactionType:   models.TransactionTypeListingFee,
		TransferReference: "MM-old",
	}
	old := models.Transaction{
		Model:             gorm.Model{ID: 3, CreatedAt: time.Now().Add(-2 * time.Hour)},
		Status:            models.TransactionPending,
		TransactionType:   models.TransactionTypeListingFee,
		TransferReference: "MM-first",
	}
	recent := models.Transaction{
		Model:             gorm.Model{ID: 4, CreatedAt: time.Now().Add(-time.Minute)},
		Status:            models.TransactionPending,
		TransactionType:   models.TransactionTypeListingFee,
		TransferReference: "MM-second",
	}

	fee := selectSettleableFee([]models.Transaction{cardFee, settled, old, recent})
	if fee == nil {
		t.Fatal("expected a settleable listing fee")
	}
	if fee.TransferReference != "MM-second" {
		t.Errorf("selected %q, want the most recent pending fee MM-second", fee.TransferReference)
	}

	if got := selectSettleableFee([]models.Transaction{cardFee, settled}); got != nil {
		t.Errorf("card holds and settled fees are not settleable, got row %d", got.ID)
	}
	if got := selectSettleableFee(nil); got != nil {
		t.Error("expected no settleable fee for empty input")
	}
}

func TestSellerWithoutPayoutParksTransfer(t *testing.T) {
	in := DirectPaymentInput{
		BuyerID:    11,
		PropertyID: 7,
		Amount:     5000,
		Currency:   "xof",
		Method:     "mobile_money",
	}
	if err := ValidateCapability(in.Method, in.Currency, in.Amount); err != nil {
		t.Fatalf("5000 XOF over mobile money must be in capability: %v", err)
	}

	hold := newSellerInfoHold(in, 22, models.TransactionTypeSale)
	if hold.Status != models.TransactionPendingSellerInfo {
		t.Errorf("status = %q, want %q", hold.Status, models.TransactionPendingSellerInfo)
	}
	if !strings.HasPrefix(hold.TransferReference, "temp-") {
		t.Errorf("transfer reference %q must carry the temp- prefix", hold.TransferReference)
	}
	if hold.BuyerID != 11 || hold.SellerID != 22 {
		t.Errorf("parties = (%d, %d), want (11, 22)", hold.BuyerID, hold.SellerID)
	}
	if hold.Amount != 5000 || hold.Currency != "XOF" {
		t.Errorf("amount = %v %s, want 5000 XOF", hold.Amount, hold.Currency)
	}
	if hold.PropertyID == nil || *hold.PropertyID != 7 {
		t.Error("expected the hold to reference property 7")
	}

	second := newSellerInfoHold(in, 22, models.TransactionTypeSale)
	if second.TransferReference == hold.TransferReference {
		t.Error("each hold needs its own temp reference")
	}
}

func TestStatusEventRequiresLedgerRow(t *testing.T) {
	if _, ok := statusEventForIntent(7, nil, models.TransactionCompleted); ok {
		t.Error("no transaction row, no event")
	}
	if _, ok := statusEventForIntent(7, &models.Transaction{}, models.TransactionCompleted); ok {
		t.Error("zero-ID transaction row, no event")
	}

	event, ok := statusEventForIntent(7, &models.Transaction{Model: gorm.Model{ID: 31}}, models.TransactionCanceled)
	if !ok {
		t.Fatal("expected an event for a persisted transaction")
	}
	if event.PropertyID != 7 || event.TransactionID != 31 || event.Status != models.TransactionCanceled {
		t.Errorf("event = %+v", event)
	}
}

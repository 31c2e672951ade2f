package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/bus"
	"github.com/tandia00/immobilier-mali-app-sub000/models"
)

// methodLimits bounds a payment method in one currency.
type methodLimits struct {
	Min float64
	Max float64
}

// capabilities is the static payment capability table: which methods exist,
// which currencies each accepts, and the amount bounds per pair. Validation
// against it happens before any provider call or database write.
var capabilities = map[string]map[string]methodLimits{
	"card": {
		"XOF": {Min: 100, Max: 50_000_000},
		"USD": {Min: 1, Max: 100_000},
		"EUR": {Min: 1, Max: 100_000},
		"MRU": {Min: 10, Max: 5_000_000},
	},
	"mobile_money": {
		"XOF": {Min: 100, Max: 2_000_000},
		"MRU": {Min: 10, Max: 500_000},
	},
}

// listingFeeAmounts is the flat publication fee per currency.
var listingFeeAmounts = map[string]float64{
	"XOF": 5000,
	"MRU": 200,
	"USD": 10,
	"EUR": 10,
}

const prepaidTTL = 7 * 24 * time.Hour

// PaymentResult is what orchestration returns to handlers: either a success
// with the touched intent, or the failure that stopped the flow.
type PaymentResult struct {
	Success bool
	Intent  *models.PaymentIntent
	Err     error
}

// PaymentService drives listing fees, buyer-to-seller payments and the
// admin-triggered capture/cancel of held card authorizations.
type PaymentService struct {
	db            *gorm.DB
	redis         *redis.Client
	bus           *bus.Bus
	provider      PaymentProvider
	transfers     TransferProvider
	notifications *NotificationStore
}

func NewPaymentService(db *gorm.DB, rdb *redis.Client, b *bus.Bus, provider PaymentProvider, transfers TransferProvider, notifications *NotificationStore) *PaymentService {
	return &PaymentService{
		db:            db,
		redis:         rdb,
		bus:           b,
		provider:      provider,
		transfers:     transfers,
		notifications: notifications,
	}
}

// ValidateCapability checks method, currency and amount against the
// capability table. It is pure and runs before any I/O.
func ValidateCapability(method, currency string, amount float64) error {
	currencies, ok := capabilities[method]
	if !ok {
		return NewValidationError("unsupported payment method %q", method)
	}
	limits, ok := currencies[strings.ToUpper(currency)]
	if !ok {
		return NewValidationError("method %q does not support currency %q", method, currency)
	}
	if amount < limits.Min {
		return NewValidationError("amount %.2f below minimum %.2f %s", amount, limits.Min, currency)
	}
	if amount > limits.Max {
		return NewValidationError("amount %.2f above maximum %.2f %s", amount, limits.Max, currency)
	}
	return nil
}

// ListingFeeAmount returns the publication fee for a currency.
func ListingFeeAmount(currency string) (float64, error) {
	amount, ok := listingFeeAmounts[strings.ToUpper(currency)]
	if !ok {
		return 0, NewValidationError("no listing fee defined for currency %q", currency)
	}
	return amount, nil
}

// ListingFeeInput describes a seller paying the publication fee for a
// property they just submitted.
type ListingFeeInput struct {
	UserID     uint
	PropertyID uint
	Currency   string
	Method     string
}

// ProcessListingFee authorizes the publication fee with manual capture. The
// hold is captured when an admin approves the property and released when the
// admin rejects it.
func (s *PaymentService) ProcessListingFee(ctx context.Context, in ListingFeeInput) PaymentResult {
	amount, err := ListingFeeAmount(in.Currency)
	if err != nil {
		return s.fail(ctx, in.UserID, "listing_fee", in.Method, amount, in.Currency, "", err)
	}
	if err := ValidateCapability(in.Method, in.Currency, amount); err != nil {
		return s.fail(ctx, in.UserID, "listing_fee", in.Method, amount, in.Currency, "", err)
	}

	var property models.Property
	if err := s.db.First(&property, in.PropertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			err = NewNotFoundError("property %d not found", in.PropertyID)
		}
		return s.fail(ctx, in.UserID, "listing_fee", in.Method, amount, in.Currency, "", err)
	}
	if property.SellerID != in.UserID {
		err := NewAuthError("property %d does not belong to user %d", in.PropertyID, in.UserID)
		return s.fail(ctx, in.UserID, "listing_fee", in.Method, amount, in.Currency, "", err)
	}

	var record *models.PaymentIntent
	transaction := models.Transaction{
		BuyerID:         in.UserID,
		SellerID:        in.UserID,
		Amount:          amount,
		Currency:        strings.ToUpper(in.Currency),
		PaymentMethod:   in.Method,
		Status:          models.TransactionPending,
		TransactionType: models.TransactionTypeListingFee,
		PropertyID:      &in.PropertyID,
	}

	if in.Method == "card" {
		if !s.provider.Reachable(ctx) {
			err := NewNetworkError("payment provider unreachable")
			return s.fail(ctx, in.UserID, "listing_fee", in.Method, amount, in.Currency, "", err)
		}
		intent, err := s.provider.CreateIntent(ctx, ProviderIntentRequest{
			Amount:   amount,
			Currency: strings.ToLower(in.Currency),
			Capture:  "manual",
			Metadata: map[string]string{
				"kind":        models.TransactionTypeListingFee,
				"property_id": fmt.Sprint(in.PropertyID),
			},
		})
		if err != nil {
			return s.fail(ctx, in.UserID, "listing_fee", in.Method, amount, in.Currency, "", err)
		}
		record = &models.PaymentIntent{
			PaymentIntentID: intent.ID,
			ClientSecret:    intent.ClientSecret,
			Amount:          amount,
			Currency:        strings.ToUpper(in.Currency),
			Status:          models.PaymentIntentRequiresCapture,
			UserID:          in.UserID,
			PropertyID:      in.PropertyID,
		}
		transaction.PaymentIntentID = intent.ID
	} else {
		// Mobile money has no authorization step; the fee is collected on
		// moderation through the transfer reference.
		transaction.TransferReference = NewTransferReference(in.Method)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if record != nil {
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}
		return tx.Model(&property).Update("status", models.PropertyStatusPending).Error
	})
	if err != nil {
		return s.fail(ctx, in.UserID, "listing_fee", in.Method, amount, in.Currency, "", err)
	}

	// The in-progress listing draft is obsolete once the fee is committed
	if err := s.redis.Del(ctx, fmt.Sprintf("draft:listing:%d", in.UserID)).Err(); err != nil {
		log.Printf("payments: draft cleanup failed for user %d: %v", in.UserID, err)
	}

	s.notify(ctx, in.UserID, models.NotificationPaymentReceived,
		"Frais de publication engagés",
		fmt.Sprintf("Vos frais de publication de %.0f %s seront prélevés à l'approbation de l'annonce.", amount, strings.ToUpper(in.Currency)),
		map[string]interface{}{"transaction_id": transaction.ID, "property_id": in.PropertyID})

	s.bus.Publish(bus.EventPaymentStatusChanged, PaymentStatusEvent{
		PropertyID:    in.PropertyID,
		TransactionID: transaction.ID,
		Status:        transaction.Status,
	})
	return PaymentResult{Success: true, Intent: record}
}

// DirectPaymentInput describes a buyer paying a seller for a property.
type DirectPaymentInput struct {
	BuyerID    uint
	PropertyID uint
	Amount     float64
	Currency   string
	Method     string
	Platform   string
}

// ProcessDirectPayment moves money from buyer to seller. Card payments go
// through a manually-captured provider hold like listing fees. Mobile money
// needs the seller's payout details: when those are missing the transaction
// parks in pending_seller_info, the funds are stashed under a temp reference,
// and the seller is asked to fill in their payment info.
func (s *PaymentService) ProcessDirectPayment(ctx context.Context, in DirectPaymentInput) PaymentResult {
	if err := ValidateCapability(in.Method, in.Currency, in.Amount); err != nil {
		return s.fail(ctx, in.BuyerID, "direct_payment", in.Method, in.Amount, in.Currency, in.Platform, err)
	}

	var property models.Property
	if err := s.db.First(&property, in.PropertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			err = NewNotFoundError("property %d not found", in.PropertyID)
		}
		return s.fail(ctx, in.BuyerID, "direct_payment", in.Method, in.Amount, in.Currency, in.Platform, err)
	}
	if property.SellerID == in.BuyerID {
		err := NewValidationError("cannot buy your own property")
		return s.fail(ctx, in.BuyerID, "direct_payment", in.Method, in.Amount, in.Currency, in.Platform, err)
	}
	if property.Status != models.PropertyStatusApproved {
		err := NewConflictError("property %d is not available for purchase", in.PropertyID)
		return s.fail(ctx, in.BuyerID, "direct_payment", in.Method, in.Amount, in.Currency, in.Platform, err)
	}

	transactionType := models.TransactionTypeSale
	if property.TransactionType == "rent" {
		transactionType = models.TransactionTypeRent
	}

	if in.Method == "card" {
		return s.directCardPayment(ctx, in, property, transactionType)
	}
	return s.directMobileMoneyPayment(ctx, in, property, transactionType)
}

func (s *PaymentService) directCardPayment(ctx context.Context, in DirectPaymentInput, property models.Property, transactionType string) PaymentResult {
	intent, err := s.provider.CreateIntent(ctx, ProviderIntentRequest{
		Amount:   in.Amount,
		Currency: strings.ToLower(in.Currency),
		Capture:  "manual",
		Metadata: map[string]string{
			"kind":        transactionType,
			"property_id": fmt.Sprint(in.PropertyID),
		},
	})
	if err != nil {
		return s.fail(ctx, in.BuyerID, "direct_payment", in.Method, in.Amount, in.Currency, in.Platform, err)
	}

	record := models.PaymentIntent{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          in.Amount,
		Currency:        strings.ToUpper(in.Currency),
		Status:          models.PaymentIntentRequiresCapture,
		UserID:          in.BuyerID,
		PropertyID:      in.PropertyID,
	}
	transaction := models.Transaction{
		BuyerID:         in.BuyerID,
		SellerID:        property.SellerID,
		Amount:          in.Amount,
		Currency:        strings.ToUpper(in.Currency),
		PaymentMethod:   in.Method,
		Status:          models.TransactionProcessing,
		TransactionType: transactionType,
		PropertyID:      &in.PropertyID,
		PaymentIntentID: intent.ID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return tx.Create(&transaction).Error
	})
	if err != nil {
		return s.fail(ctx, in.BuyerID, "direct_payment", in.Method, in.Amount, in.Currency, in.Platform, err)
	}

	s.notify(ctx, property.SellerID, models.NotificationPaymentReceived,
		"Paiement en attente",
		fmt.Sprintf("Un acheteur a engagé %.0f %s pour votre bien.", in.Amount, strings.ToUpper(in.Currency)),
		map[string]interface{}{"transaction_id": transaction.ID, "property_id": in.PropertyID})

	s.bus.Publish(bus.EventPaymentStatusChanged, PaymentStatusEvent{
		PropertyID:    in.PropertyID,
		TransactionID: transaction.ID,
		Status:        transaction.Status,
	})
	return PaymentResult{Success: true, Intent: &record}
}

// newSellerInfoHold parks a buyer's transfer until the seller provides payout
// details. The temp reference keys the prepaid stash that
// ResolvePendingTransfers settles once the details arrive.
func newSellerInfoHold(in DirectPaymentInput, sellerID uint, transactionType string) models.Transaction {
	return models.Transaction{
		BuyerID:           in.BuyerID,
		SellerID:          sellerID,
		Amount:            in.Amount,
		Currency:          strings.ToUpper(in.Currency),
		PaymentMethod:     in.Method,
		TransactionType:   transactionType,
		PropertyID:        &in.PropertyID,
		Status:            models.TransactionPendingSellerInfo,
		TransferReference: "temp-" + uuid.NewString(),
	}
}

func (s *PaymentService) directMobileMoneyPayment(ctx context.Context, in DirectPaymentInput, property models.Property, transactionType string) PaymentResult {
	var payout models.PaymentInfo
	err := s.db.Where("user_id = ?", property.SellerID).First(&payout).Error
	missingPayout := err == gorm.ErrRecordNotFound
	if err != nil && !missingPayout {
		return s.fail(ctx, in.BuyerID, "direct_payment", in.Method, in.Amount, in.Currency, in.Platform, err)
	}

	transaction := models.Transaction{
		BuyerID:         in.BuyerID,
		SellerID:        property.SellerID,
		Amount:          in.Amount,
		Currency:        strings.ToUpper(in.Currency),
		PaymentMethod:   in.Method,
		TransactionType: transactionType,
		PropertyID:      &in.PropertyID,
	}

	if missingPayout {
		transaction = newSellerInfoHold(in, property.SellerID, transactionType)

		if err := s.db.Create(&transaction).Error; err != nil {
			return s.fail(ctx, in.BuyerID, "direct_payment", in.Method, in.Amount, in.Currency, in.Platform, err)
		}
		if err := s.redis.Set(ctx, prepaidKey(property.SellerID), transaction.TransferReference, prepaidTTL).Err(); err != nil {
			log.Printf("payments: prepaid stash write failed for seller %d: %v", property.SellerID, err)
		}

		s.notify(ctx, property.SellerID, models.NotificationPaymentInfoNeeded,
			"Informations de paiement requises",
			"Un acheteur vous a payé. Renseignez vos informations de paiement pour recevoir les fonds.",
			map[string]interface{}{"transaction_id": transaction.ID, "property_id": in.PropertyID})

		s.bus.Publish(bus.EventPaymentStatusChanged, PaymentStatusEvent{
			PropertyID:    in.PropertyID,
			TransactionID: transaction.ID,
			Status:        transaction.Status,
		})
		return PaymentResult{Success: true}
	}

	result, err := s.transfers.Execute(ctx, TransferRequest{
		Amount:    in.Amount,
		Currency:  strings.ToUpper(in.Currency),
		Method:    in.Method,
		Provider:  payout.Provider,
		Recipient: payout.PhoneNumber,
	})
	if err != nil {
		return s.fail(ctx, in.BuyerID, "direct_payment", in.Method, in.Amount, in.Currency, in.Platform, err)
	}

	transaction.Status = models.TransactionCompleted
	transaction.TransferReference = result.Reference
	if err := s.db.Create(&transaction).Error; err != nil {
		return s.fail(ctx, in.BuyerID, "direct_payment", in.Method, in.Amount, in.Currency, in.Platform, err)
	}

	if transactionType == models.TransactionTypeSale {
		if err := s.db.Model(&property).Update("status", models.PropertyStatusSold).Error; err != nil {
			log.Printf("payments: marking property %d sold failed: %v", property.ID, err)
		}
	}

	s.notify(ctx, property.SellerID, models.NotificationPaymentReceived,
		"Paiement reçu",
		fmt.Sprintf("Vous avez reçu %.0f %s pour votre bien.", in.Amount, strings.ToUpper(in.Currency)),
		map[string]interface{}{"transaction_id": transaction.ID, "property_id": in.PropertyID})
	s.notify(ctx, in.BuyerID, models.NotificationPaymentReceipt,
		"Reçu de paiement",
		fmt.Sprintf("Votre paiement de %.0f %s a été effectué.", in.Amount, strings.ToUpper(in.Currency)),
		map[string]interface{}{"transaction_id": transaction.ID, "property_id": in.PropertyID})

	s.bus.Publish(bus.EventPaymentStatusChanged, PaymentStatusEvent{
		PropertyID:    in.PropertyID,
		TransactionID: transaction.ID,
		Status:        transaction.Status,
	})
	return PaymentResult{Success: true}
}

// ResolvePendingTransfers settles transactions parked in pending_seller_info
// once the seller has saved payout details. Called right after PaymentInfo
// is created or updated.
func (s *PaymentService) ResolvePendingTransfers(ctx context.Context, sellerID uint) (int, error) {
	var payout models.PaymentInfo
	if err := s.db.Where("user_id = ?", sellerID).First(&payout).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, NewNotFoundError("no payment info for user %d", sellerID)
		}
		return 0, err
	}

	var pending []models.Transaction
	err := s.db.Where("seller_id = ? AND status = ?", sellerID, models.TransactionPendingSellerInfo).
		Find(&pending).Error
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range pending {
		tr := &pending[i]
		result, err := s.transfers.Execute(ctx, TransferRequest{
			Amount:    tr.Amount,
			Currency:  tr.Currency,
			Method:    tr.PaymentMethod,
			Provider:  payout.Provider,
			Recipient: payout.PhoneNumber,
		})
		if err != nil {
			log.Printf("payments: deferred transfer failed for transaction %d: %v", tr.ID, err)
			continue
		}
		updates := map[string]interface{}{
			"status":             models.TransactionCompleted,
			"transfer_reference": result.Reference,
		}
		if err := s.db.Model(tr).Updates(updates).Error; err != nil {
			log.Printf("payments: deferred transfer update failed for transaction %d: %v", tr.ID, err)
			continue
		}
		settled++

		s.notify(ctx, sellerID, models.NotificationPaymentReceived,
			"Paiement reçu",
			fmt.Sprintf("Vous avez reçu %.0f %s pour votre bien.", tr.Amount, tr.Currency),
			map[string]interface{}{"transaction_id": tr.ID})
		var propertyID uint
		if tr.PropertyID != nil {
			propertyID = *tr.PropertyID
		}
		s.bus.Publish(bus.EventPaymentStatusChanged, PaymentStatusEvent{
			PropertyID:    propertyID,
			TransactionID: tr.ID,
			Status:        models.TransactionCompleted,
		})
	}

	if settled > 0 {
		if err := s.redis.Del(ctx, prepaidKey(sellerID)).Err(); err != nil {
			log.Printf("payments: prepaid stash clear failed for seller %d: %v", sellerID, err)
		}
	}
	return settled, nil
}

// selectCapturable picks the intent an admin decision should act on: the
// most recently created hold that has not been captured or canceled. The
// second return names why nothing qualified.
func selectCapturable(intents []models.PaymentIntent) (*models.PaymentIntent, string) {
	if len(intents) == 0 {
		return nil, "no payment intents for property"
	}
	candidates := make([]models.PaymentIntent, 0, len(intents))
	for _, intent := range intents {
		if intent.Status == models.PaymentIntentRequiresCapture && !intent.Captured {
			candidates = append(candidates, intent)
		}
	}
	if len(candidates) == 0 {
		return nil, "no capturable payment intent for property"
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return &candidates[0], ""
}

// selectSettleableFee picks the listing-fee ledger row a moderation decision
// settles when the fee was paid over a rail with no authorization hold: the
// most recent pending listing-fee transaction without a provider intent.
func selectSettleableFee(transactions []models.Transaction) *models.Transaction {
	candidates := make([]models.Transaction, 0, len(transactions))
	for _, tr := range transactions {
		if tr.Status == models.TransactionPending &&
			tr.TransactionType == models.TransactionTypeListingFee &&
			tr.PaymentIntentID == "" {
			candidates = append(candidates, tr)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return &candidates[0]
}

// settleListingFee moves an intent-less pending listing fee to its terminal
// state. The second return is false when the property has no such fee.
func (s *PaymentService) settleListingFee(ctx context.Context, propertyID uint, approve bool, reason string) (PaymentResult, bool) {
	var transactions []models.Transaction
	err := s.db.Where("property_id = ? AND transaction_type = ? AND status = ?",
		propertyID, models.TransactionTypeListingFee, models.TransactionPending).
		Find(&transactions).Error
	if err != nil {
		return PaymentResult{Err: err}, true
	}
	fee := selectSettleableFee(transactions)
	if fee == nil {
		return PaymentResult{}, false
	}

	if approve {
		if err := s.db.Model(fee).Update("status", models.TransactionCompleted).Error; err != nil {
			return PaymentResult{Err: err}, true
		}
		s.notify(ctx, fee.BuyerID, models.NotificationPaymentSuccess,
			"Frais de publication prélevés",
			fmt.Sprintf("Vos frais de publication de %.0f %s ont été prélevés.", fee.Amount, fee.Currency),
			map[string]interface{}{"transaction_id": fee.ID, "property_id": propertyID})
		s.bus.Publish(bus.EventPaymentStatusChanged, PaymentStatusEvent{
			PropertyID:    propertyID,
			TransactionID: fee.ID,
			Status:        models.TransactionCompleted,
		})
		return PaymentResult{Success: true}, true
	}

	updates := map[string]interface{}{
		"status":         models.TransactionCanceled,
		"failure_reason": reason,
	}
	if err := s.db.Model(fee).Updates(updates).Error; err != nil {
		return PaymentResult{Err: err}, true
	}
	s.bus.Publish(bus.EventPaymentStatusChanged, PaymentStatusEvent{
		PropertyID:    propertyID,
		TransactionID: fee.ID,
		Status:        models.TransactionCanceled,
	})
	return PaymentResult{Success: true}, true
}

// statusEventForIntent builds the payment status event announcing an admin
// decision. Without a ledger row backing the intent there is nothing to
// announce.
func statusEventForIntent(propertyID uint, transaction *models.Transaction, status string) (PaymentStatusEvent, bool) {
	if transaction == nil || transaction.ID == 0 {
		return PaymentStatusEvent{}, false
	}
	return PaymentStatusEvent{
		PropertyID:    propertyID,
		TransactionID: transaction.ID,
		Status:        status,
	}, true
}

// CapturePaymentForProperty collects the listing fee when an admin approves a
// property: card fees capture the held authorization, mobile-money fees settle
// their pending transaction directly.
func (s *PaymentService) CapturePaymentForProperty(ctx context.Context, propertyID uint) PaymentResult {
	var intents []models.PaymentIntent
	if err := s.db.Where("property_id = ?", propertyID).Find(&intents).Error; err != nil {
		return PaymentResult{Err: err}
	}
	intent, reason := selectCapturable(intents)
	if intent == nil {
		if result, ok := s.settleListingFee(ctx, propertyID, true, ""); ok {
			return result
		}
		return PaymentResult{Err: NewNotFoundError("%s %d", reason, propertyID)}
	}

	if err := s.provider.Capture(ctx, intent.PaymentIntentID); err != nil {
		s.logPaymentError(ctx, intent.UserID, "capture_payment", "card", intent.Amount, intent.Currency, "", err)
		return PaymentResult{Err: err, Intent: intent}
	}

	now := time.Now()
	err := s.db.Model(intent).Updates(map[string]interface{}{
		"status":      models.PaymentIntentSucceeded,
		"captured":    true,
		"captured_at": now,
	}).Error
	if err != nil {
		return PaymentResult{Err: err, Intent: intent}
	}

	var transaction models.Transaction
	err = s.db.Where("payment_intent_id = ?", intent.PaymentIntentID).First(&transaction).Error
	if err == nil {
		if err := s.db.Model(&transaction).Update("status", models.TransactionCompleted).Error; err != nil {
			log.Printf("payments: transaction update failed after capture of %s: %v", intent.PaymentIntentID, err)
		}
		s.notify(ctx, transaction.BuyerID, models.NotificationPaymentSuccess,
			"Paiement confirmé",
			fmt.Sprintf("Votre paiement de %.0f %s a été confirmé.", intent.Amount, intent.Currency),
			map[string]interface{}{"transaction_id": transaction.ID, "property_id": propertyID})
		if transaction.TransactionType == models.TransactionTypeSale {
			if err := s.db.Model(&models.Property{}).Where("id = ?", propertyID).
				Update("status", models.PropertyStatusSold).Error; err != nil {
				log.Printf("payments: marking property %d sold failed: %v", propertyID, err)
			}
		}
	} else {
		log.Printf("payments: no transaction for captured intent %s: %v", intent.PaymentIntentID, err)
	}

	if event, ok := statusEventForIntent(propertyID, &transaction, models.TransactionCompleted); ok {
		s.bus.Publish(bus.EventPaymentStatusChanged, event)
	}
	return PaymentResult{Success: true, Intent: intent}
}

// CancelPaymentForProperty releases the listing fee when an admin rejects a
// property: card holds are canceled at the provider, mobile-money fees are
// canceled on the ledger. The payer is never charged.
func (s *PaymentService) CancelPaymentForProperty(ctx context.Context, propertyID uint, reason string) PaymentResult {
	if reason == "" {
		reason = "requested_by_customer"
	}
	var intents []models.PaymentIntent
	if err := s.db.Where("property_id = ?", propertyID).Find(&intents).Error; err != nil {
		return PaymentResult{Err: err}
	}
	intent, why := selectCapturable(intents)
	if intent == nil {
		if result, ok := s.settleListingFee(ctx, propertyID, false, reason); ok {
			return result
		}
		return PaymentResult{Err: NewNotFoundError("%s %d", why, propertyID)}
	}
	if err := s.provider.Cancel(ctx, intent.PaymentIntentID, reason); err != nil {
		s.logPaymentError(ctx, intent.UserID, "cancel_payment", "card", intent.Amount, intent.Currency, "", err)
		return PaymentResult{Err: err, Intent: intent}
	}

	now := time.Now()
	err := s.db.Model(intent).Updates(map[string]interface{}{
		"status":        models.PaymentIntentCanceled,
		"canceled_at":   now,
		"cancel_reason": reason,
	}).Error
	if err != nil {
		return PaymentResult{Err: err, Intent: intent}
	}

	var transaction models.Transaction
	err = s.db.Where("payment_intent_id = ?", intent.PaymentIntentID).First(&transaction).Error
	if err == nil {
		if err := s.db.Model(&transaction).Updates(map[string]interface{}{
			"status":         models.TransactionCanceled,
			"failure_reason": reason,
		}).Error; err != nil {
			log.Printf("payments: transaction update failed after cancel of %s: %v", intent.PaymentIntentID, err)
		}
	}

	if event, ok := statusEventForIntent(propertyID, &transaction, models.TransactionCanceled); ok {
		s.bus.Publish(bus.EventPaymentStatusChanged, event)
	}
	return PaymentResult{Success: true, Intent: intent}
}

// TransactionsForUser lists the user's transactions as buyer or seller,
// newest first.
func (s *PaymentService) TransactionsForUser(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.db.Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

// fail records the failure in the error log and wraps it in a PaymentResult.
func (s *PaymentService) fail(ctx context.Context, userID uint, operation, method string, amount float64, currency, platform string, err error) PaymentResult {
	s.logPaymentError(ctx, userID, operation, method, amount, currency, platform, err)
	return PaymentResult{Err: err}
}

func (s *PaymentService) logPaymentError(ctx context.Context, userID uint, operation, method string, amount float64, currency, platform string, cause error) {
	log.Printf("payments: %s failed for user %d: %v", operation, userID, cause)
	entry := models.ErrorLog{
		UserID:    userID,
		Operation: operation,
		Method:    method,
		Amount:    amount,
		Currency:  strings.ToUpper(currency),
		Platform:  platform,
		Message:   cause.Error(),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("payments: error log write failed: %v", err)
	}
}

func (s *PaymentService) notify(ctx context.Context, userID uint, kind, title, message string, data map[string]interface{}) {
	_, err := s.notifications.Create(ctx, userID, kind, title, message, data, CreateOptions{Force: true})
	if err != nil {
		log.Printf("payments: notification %q for user %d failed: %v", kind, userID, err)
	}
}

func prepaidKey(userID uint) string {
	return fmt.Sprintf("prepaid:%d", userID)
}

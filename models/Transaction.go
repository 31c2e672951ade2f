package models

import "gorm.io/gorm"

// Transaction statuses. pending transitions to processing, completed, failed
// or canceled; pending_seller_info parks a direct payment until the seller
// configures a payout method.
const (
	TransactionPending           = "pending"
	TransactionProcessing        = "processing"
	TransactionCompleted         = "completed"
	TransactionFailed            = "failed"
	TransactionCanceled          = "canceled"
	TransactionPendingSellerInfo = "pending_seller_info"
)

// Transaction kinds.
const (
	TransactionTypeListingFee = "listing_fee"
	TransactionTypeSale       = "sale"
	TransactionTypeRent       = "rent"
)

// Transaction is the durable ledger row; PaymentIntent holds the
// provider-side authorization when the method is card.
type Transaction struct {
	gorm.Model
	BuyerID           uint    `json:"buyerID" gorm:"index"`
	SellerID          uint    `json:"sellerID" gorm:"index"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency" gorm:"size:8"`
	PaymentMethod     string  `json:"paymentMethod" gorm:"size:32"`
	Status            string  `json:"status" gorm:"size:32;index"`
	TransactionType   string  `json:"transactionType" gorm:"size:32;index"`
	PropertyID        *uint   `json:"propertyID" gorm:"index"`
	PaymentIntentID   string  `json:"paymentIntentID" gorm:"size:128;index"`
	TransferReference string  `json:"transferReference" gorm:"size:128"`
	FailureReason     string  `json:"failureReason" gorm:"size:256"`
}

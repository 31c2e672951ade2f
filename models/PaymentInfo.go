package models

import "gorm.io/gorm"

// PaymentInfo is a seller's payout configuration. A direct payment to a
// seller without one is parked in pending_seller_info.
type PaymentInfo struct {
	gorm.Model
	UserID      uint   `json:"userID" gorm:"uniqueIndex;not null"`
	Method      string `json:"method" gorm:"size:32"`   // mobile_money, bank_transfer
	Provider    string `json:"provider" gorm:"size:64"` // orange_money, moov, sama
	PhoneNumber string `json:"phoneNumber" gorm:"size:32"`
	AccountName string `json:"accountName" gorm:"size:128"`
}

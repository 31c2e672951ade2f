package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentIntent statuses. requires_capture is the only non-terminal state:
// funds are authorized at checkout and settled or released on moderation.
const (
	PaymentIntentRequiresCapture = "requires_capture"
	PaymentIntentSucceeded       = "succeeded"
	PaymentIntentCanceled        = "canceled"
)

// PaymentIntent is the provider-side authorization record for a listing fee.
type PaymentIntent struct {
	gorm.Model
	PaymentIntentID string     `json:"paymentIntentID" gorm:"size:128;uniqueIndex"`
	ClientSecret    string     `json:"-" gorm:"size:256"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency" gorm:"size:8"`
	Status          string     `json:"status" gorm:"size:32;index"`
	UserID          uint       `json:"userID" gorm:"index"`
	PropertyID      uint       `json:"propertyID" gorm:"index"`
	Captured        bool       `json:"captured" gorm:"default:false;index"`
	CapturedAt      *time.Time `json:"capturedAt"`
	CanceledAt      *time.Time `json:"canceledAt"`
	CancelReason    string     `json:"cancelReason" gorm:"size:256"`
}

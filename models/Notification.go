package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types. The Data payload is keyed by type, e.g. a new_message
// notification carries {message_id, sender_id, property_id}.
const (
	NotificationNewMessage        = "new_message"
	NotificationPaymentReceived   = "payment_received"
	NotificationPaymentInfoNeeded = "payment_info_needed"
	NotificationPaymentReceipt    = "payment_receipt"
	NotificationPaymentSuccess    = "payment_success"
)

type Notification struct {
	gorm.Model
	UserID  uint           `json:"userID" gorm:"index;not null"`
	Type    string         `json:"type" gorm:"size:32;index"`
	Title   string         `json:"title" gorm:"size:256"`
	Message string         `json:"message" gorm:"type:text"`
	Data    datatypes.JSON `json:"data" gorm:"type:jsonb"`
	Read    bool           `json:"read" gorm:"default:false;index"`
}

package models

import "time"

// ErrorLog captures write-path failures (payments, transfers) with enough
// context for post-hoc diagnosis.
type ErrorLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userID" gorm:"index"`
	Operation string    `json:"operation" gorm:"size:64;index"`
	Method    string    `json:"method" gorm:"size:32"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency" gorm:"size:8"`
	Platform  string    `json:"platform" gorm:"size:32"`
	Message   string    `json:"message" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}

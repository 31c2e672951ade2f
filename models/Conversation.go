package models

import "gorm.io/gorm"

// Conversation identifies one thread per (property, counterparty pair).
// The pair is stored normalized so (a,b) and (b,a) resolve to the same row.
type Conversation struct {
	gorm.Model
	PropertyID uint `json:"propertyID" gorm:"uniqueIndex:idx_conversation_identity"`
	LowUserID  uint `json:"lowUserID" gorm:"uniqueIndex:idx_conversation_identity"`
	HighUserID uint `json:"highUserID" gorm:"uniqueIndex:idx_conversation_identity"`
}

// NormalizePair orders two user ids as (low, high).
func NormalizePair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

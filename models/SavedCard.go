package models

import "gorm.io/gorm"

// SavedCard stores a provider token only, never card numbers.
type SavedCard struct {
	gorm.Model
	UserID      uint   `json:"userID" gorm:"index;not null"`
	Brand       string `json:"brand" gorm:"size:32"`
	Last4       string `json:"last4" gorm:"size:4"`
	ExpMonth    int    `json:"expMonth"`
	ExpYear     int    `json:"expYear"`
	ProviderRef string `json:"-" gorm:"size:128"`
	IsDefault   bool   `json:"isDefault" gorm:"default:false"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProfile holds the public profile separate from the User auth record.
type UserProfile struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	UserID      uint   `json:"userID" gorm:"not null;uniqueIndex"`
	User        User   `json:"user" gorm:"foreignKey:UserID"`
	DisplayName string `json:"displayName" gorm:"size:100"`
	Bio         string `json:"bio" gorm:"type:text"`
	City        string `json:"city" gorm:"size:100"`
	Country     string `json:"country" gorm:"size:100"`
	IsAgent     bool   `json:"isAgent" gorm:"default:false"`
	AgencyName  string `json:"agencyName" gorm:"size:150"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt" gorm:"index"`
}

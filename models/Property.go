package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Property listing lifecycle statuses.
const (
	PropertyStatusDraft    = "draft"
	PropertyStatusPending  = "pending"
	PropertyStatusApproved = "approved"
	PropertyStatusRejected = "rejected"
	PropertyStatusSold     = "sold"
)

type Property struct {
	gorm.Model
	SellerID        uint           `json:"sellerID" gorm:"index"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	PropertyType    string         `json:"propertyType" gorm:"size:32"` // house, apartment, land, commercial
	TransactionType string         `json:"transactionType" gorm:"size:16;default:sale"`
	Address         string         `json:"address"`
	City            string         `json:"city" gorm:"index"`
	Country         string         `json:"country"`
	Lat             float64        `json:"lat"`
	Lng             float64        `json:"lng"`
	Bedrooms        int            `json:"bedrooms"`
	Bathrooms       int            `json:"bathrooms"`
	Area            int            `json:"area"` // square meters
	Price           float64        `json:"price"`
	Currency        string         `json:"currency" gorm:"size:8;default:XOF"`
	Images          datatypes.JSON `json:"images"`
	Seller          User           `json:"seller" gorm:"foreignKey:SellerID;references:ID"`

	// Admin moderation fields
	Status      string `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	ReviewNotes string `json:"reviewNotes" gorm:"type:text"`
	IsFlagged   bool   `json:"isFlagged" gorm:"default:false;index"`
	FlagReason  string `json:"flagReason" gorm:"type:text"`
}

// Custom JSON marshaling to expose the Images column as an array
func (p *Property) MarshalJSON() ([]byte, error) {
	type Alias Property
	aux := &struct {
		Images []string `json:"images"`
		Seller *User    `json:"seller,omitempty"`
		*Alias
	}{
		Images: []string{},
		Seller: nil,
		Alias:  (*Alias)(p),
	}

	if p.Images != nil {
		var images []string
		if err := json.Unmarshal(p.Images, &images); err == nil {
			aux.Images = images
		}
	}

	if p.Seller.ID > 0 {
		sellerCopy := p.Seller
		sellerCopy.Properties = nil // avoid circular reference
		aux.Seller = &sellerCopy
	}

	return json.Marshal(aux)
}

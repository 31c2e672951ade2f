package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName           string         `json:"firstName"`
	LastName            string         `json:"lastName"`
	Email               string         `json:"email" gorm:"uniqueIndex"`
	PhoneNumber         string         `json:"phoneNumber" gorm:"index"`
	Password            string         `json:"-"`
	AvatarURL           string         `json:"avatarURL"`
	Properties          []Property     `json:"properties" gorm:"foreignKey:SellerID;references:ID"`
	SavedProperties     datatypes.JSON `json:"savedProperties"`
	PushTokens          datatypes.JSON `json:"pushTokens"`
	AllowsNotifications *bool          `json:"allowsNotifications"`
	Role                string         `json:"role" gorm:"type:varchar(20);default:user;index"` // user, admin, super_admin
}

// Custom JSON marshaling to expose JSON columns as arrays
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		SavedProperties []int    `json:"savedProperties,omitempty"`
		PushTokens      []string `json:"pushTokens,omitempty"`
		*Alias
	}{
		SavedProperties: []int{},
		PushTokens:      []string{},
		Alias:           (*Alias)(u),
	}

	if u.SavedProperties != nil {
		var saved []int
		if err := json.Unmarshal(u.SavedProperties, &saved); err == nil {
			aux.SavedProperties = saved
		}
	}

	if u.PushTokens != nil {
		var tokens []string
		if err := json.Unmarshal(u.PushTokens, &tokens); err == nil {
			aux.PushTokens = tokens
		}
	}

	// Properties excluded to prevent circular reference
	return json.Marshal(aux)
}

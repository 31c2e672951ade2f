package models

import "gorm.io/gorm"

type Message struct {
	gorm.Model
	ConversationID uint   `json:"conversationID" gorm:"index"`
	SenderID       uint   `json:"senderID" gorm:"index"`
	ReceiverID     uint   `json:"receiverID" gorm:"index"`
	PropertyID     uint   `json:"propertyID" gorm:"index"`
	Content        string `json:"content" gorm:"type:text"`
	Read           bool   `json:"read" gorm:"default:false;index"`
}

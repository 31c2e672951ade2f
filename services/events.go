package services

// Event payloads carried on the bus. Producers fill what they know;
// consumers treat zero values as absent.

type MessageEvent struct {
	MessageID  uint `json:"messageID"`
	SenderID   uint `json:"senderID"`
	ReceiverID uint `json:"receiverID"`
	PropertyID uint `json:"propertyID"`
}

type MessagesReadEvent struct {
	UserID     uint   `json:"userID"`
	MessageIDs []uint `json:"messageIDs"`
}

type ChatOpenedEvent struct {
	UserID     uint   `json:"userID"`
	MessageIDs []uint `json:"messageIDs"`
}

type UnreadRefreshEvent struct {
	UserID uint `json:"userID"`
}

type NotificationEvent struct {
	NotificationID uint   `json:"notificationID"`
	UserID         uint   `json:"userID"`
	Type           string `json:"type"`
}

type PaymentStatusEvent struct {
	PropertyID    uint   `json:"propertyID"`
	TransactionID uint   `json:"transactionID"`
	Status        string `json:"status"`
}

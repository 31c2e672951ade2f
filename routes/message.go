package routes

import (
	"context"
	"fmt"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/bus"
	"github.com/tandia00/immobilier-mali-app-sub000/models"
	"github.com/tandia00/immobilier-mali-app-sub000/services"
	"github.com/tandia00/immobilier-mali-app-sub000/storage"
	"github.com/tandia00/immobilier-mali-app-sub000/utils"
)

// SendMessage creates a message in the (property, pair) conversation,
// creating the conversation on first contact, and notifies the receiver.
func SendMessage(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input SendMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if input.ReceiverID == claims.ID {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "cannot message yourself", ctx)
		return
	}

	var property models.Property
	if err := storage.DB.First(&property, input.PropertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	low, high := models.NormalizePair(claims.ID, input.ReceiverID)
	var conversation models.Conversation
	err := storage.DB.
		Where("property_id = ? AND low_user_id = ? AND high_user_id = ?", input.PropertyID, low, high).
		First(&conversation).Error
	if err == gorm.ErrRecordNotFound {
		conversation = models.Conversation{PropertyID: input.PropertyID, LowUserID: low, HighUserID: high}
		err = storage.DB.Create(&conversation).Error
	}
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	message := models.Message{
		ConversationID: conversation.ID,
		SenderID:       claims.ID,
		ReceiverID:     input.ReceiverID,
		PropertyID:     input.PropertyID,
		Content:        input.Content,
	}
	if err := storage.DB.Create(&message).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	deps.Bus.Publish(bus.EventNewMessage, services.MessageEvent{
		MessageID:  message.ID,
		SenderID:   claims.ID,
		ReceiverID: input.ReceiverID,
		PropertyID: input.PropertyID,
	})

	var sender models.User
	senderName := "Un utilisateur"
	if err := storage.DB.Select("id, first_name, last_name, push_tokens, allows_notifications").First(&sender, claims.ID).Error; err == nil {
		senderName = sender.FirstName + " " + sender.LastName
	}

	_, notifErr := deps.Notifications.Create(ctx.Request().Context(), input.ReceiverID,
		models.NotificationNewMessage,
		"Nouveau message",
		fmt.Sprintf("%s: %s", senderName, truncate(input.Content, 120)),
		map[string]interface{}{
			"sender_id":   claims.ID,
			"property_id": input.PropertyID,
		},
		services.CreateOptions{MessageID: fmt.Sprint(message.ID)})
	if notifErr == nil {
		var receiver models.User
		if err := storage.DB.First(&receiver, input.ReceiverID).Error; err == nil {
			utils.SendPushNotification(&receiver, "Nouveau message",
				truncate(input.Content, 120),
				map[string]interface{}{"propertyID": input.PropertyID, "senderID": claims.ID})
		}
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(message)
}

// GetConversations lists the caller's threads with their latest message.
func GetConversations(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var conversations []models.Conversation
	err := storage.DB.
		Where("low_user_id = ? OR high_user_id = ?", claims.ID, claims.ID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	type conversationView struct {
		models.Conversation
		LastMessage *models.Message `json:"lastMessage"`
		UnreadCount int64           `json:"unreadCount"`
	}

	views := make([]conversationView, 0, len(conversations))
	for _, c := range conversations {
		view := conversationView{Conversation: c}
		var last models.Message
		if err := storage.DB.Where("conversation_id = ?", c.ID).Order("created_at DESC").First(&last).Error; err == nil {
			view.LastMessage = &last
		}
		storage.DB.Model(&models.Message{}).
			Where("conversation_id = ? AND receiver_id = ? AND read = ?", c.ID, claims.ID, false).
			Count(&view.UnreadCount)
		views = append(views, view)
	}
	ctx.JSON(views)
}

// GetMessages returns a conversation's messages, oldest first.
func GetMessages(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	params := ctx.Params()
	id := params.Get("id")

	var conversation models.Conversation
	if err := storage.DB.First(&conversation, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if conversation.LowUserID != claims.ID && conversation.HighUserID != claims.ID {
		utils.CreateForbidden(ctx)
		return
	}

	var messages []models.Message
	err := storage.DB.Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(messages)
}

// MarkMessagesRead persists the read flags and lets the unread counter trim
// its viewed set.
func MarkMessagesRead(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input MessageIDsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	err := storage.DB.Model(&models.Message{}).
		Where("id IN ? AND receiver_id = ?", input.MessageIDs, claims.ID).
		Update("read", true).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	deps.Bus.Publish(bus.EventMessagesRead, services.MessagesReadEvent{
		UserID:     claims.ID,
		MessageIDs: input.MessageIDs,
	})
	ctx.JSON(iris.Map{"updated": true})
}

// ChatOpened reports that the user is looking at these messages right now.
// The unread badge excludes them immediately, ahead of the read flags.
func ChatOpened(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input MessageIDsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	deps.Bus.Publish(bus.EventChatOpened, services.ChatOpenedEvent{
		UserID:     claims.ID,
		MessageIDs: input.MessageIDs,
	})
	ctx.JSON(iris.Map{"acknowledged": true})
}

// RefreshUnread asks for a badge recompute, e.g. when the app returns to the
// foreground. The recompute itself is debounced.
func RefreshUnread(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	deps.Bus.Publish(bus.EventGlobalUnreadRefresh, services.UnreadRefreshEvent{UserID: claims.ID})
	ctx.JSON(iris.Map{"scheduled": true})
}

// UnreadCount returns the caller's current badge value.
func UnreadCount(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	count, err := deps.Unread.Count(context.Background(), claims.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"count": count})
}

// truncate cuts on rune boundaries so accented content never yields an
// invalid UTF-8 preview.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

type SendMessageInput struct {
	ReceiverID uint   `json:"receiverID" validate:"required"`
	PropertyID uint   `json:"propertyID" validate:"required"`
	Content    string `json:"content" validate:"required,max=4096"`
}

type MessageIDsInput struct {
	MessageIDs []uint `json:"messageIDs" validate:"required,min=1"`
}

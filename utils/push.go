package utils

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tandia00/immobilier-mali-app-sub000/models"
)

const expoPushURL = "https://exp.host/--/api/v2/push/send"

var pushClient = resty.New().
	SetTimeout(10 * time.Second).
	SetHeader("Content-Type", "application/json").
	SetHeader("Accept", "application/json")

type pushMessage struct {
	To    []string               `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Sound string                 `json:"sound"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// SendPushNotification sends an Expo push to every registered token of the
// user. Failures are logged and swallowed; push delivery is best effort.
func SendPushNotification(user *models.User, title, body string, data map[string]interface{}) {
	if user == nil || len(user.PushTokens) == 0 {
		return
	}
	if user.AllowsNotifications != nil && !*user.AllowsNotifications {
		return
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil || len(tokens) == 0 {
		return
	}

	msg := pushMessage{
		To:    tokens,
		Title: title,
		Body:  body,
		Sound: "default",
		Data:  data,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := pushClient.R().SetContext(ctx).SetBody(msg).Post(expoPushURL)
	if err != nil {
		log.Printf("push: send failed for user %d: %v", user.ID, err)
		return
	}
	if resp.IsError() {
		log.Printf("push: expo returned %d for user %d", resp.StatusCode(), user.ID)
	}
}

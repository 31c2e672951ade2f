package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/tandia00/immobilier-mali-app-sub000/bus"
	"github.com/tandia00/immobilier-mali-app-sub000/models"
	"github.com/tandia00/immobilier-mali-app-sub000/routes"
	"github.com/tandia00/immobilier-mali-app-sub000/services"
	"github.com/tandia00/immobilier-mali-app-sub000/storage"
	"github.com/tandia00/immobilier-mali-app-sub000/utils"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	eventBus := bus.New()
	notifications := services.NewNotificationStore(storage.DB, storage.Redis, eventBus)

	var provider services.PaymentProvider = services.NewStripeClientFromEnv()
	transfers := services.SimulatedTransferProvider{}
	payments := services.NewPaymentService(storage.DB, storage.Redis, eventBus, provider, transfers, notifications)

	// Relay stored notifications to the user's devices. Chat messages are
	// pushed by the message route with sender context, so skip those here.
	eventBus.Subscribe(bus.EventNotificationCreated, func(payload interface{}) {
		event, ok := payload.(services.NotificationEvent)
		if !ok || event.Type == models.NotificationNewMessage {
			return
		}
		var notification models.Notification
		if err := storage.DB.First(&notification, event.NotificationID).Error; err != nil {
			return
		}
		var user models.User
		if err := storage.DB.First(&user, event.UserID).Error; err != nil {
			return
		}
		utils.SendPushNotification(&user, notification.Title, notification.Message,
			map[string]interface{}{"notificationID": notification.ID, "type": notification.Type})
	})

	unread := services.NewUnreadCounter(storage.DB, storage.Redis, eventBus)
	unread.SetSink(func(userID uint, count int64) {
		log.Printf("unread: user %d badge is now %d", userID, count)
	})
	unread.Start()
	defer unread.Stop()

	routes.Configure(routes.Deps{
		Bus:           eventBus,
		Notifications: notifications,
		Payments:      payments,
		Unread:        unread,
	})

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// JWT Verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/register-phone", routes.RegisterPhone)
		user.Post("/login-phone", routes.LoginPhone)
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
		user.Get("/{id}", accessTokenVerifierMiddleware, routes.GetUser)
		user.Get("/{id}/profile", accessTokenVerifierMiddleware, routes.GetProfile)
		user.Put("/profile", accessTokenVerifierMiddleware, routes.UpdateProfile)
		user.Patch("/{id}/pushtoken", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterPushToken)
		user.Patch("/{id}/settings/notifications", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AllowsNotifications)
		user.Patch("/{id}/properties/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterSavedProperties)
	}

	property := app.Party("/api/property")
	{
		property.Get("/search", routes.SearchProperties)
		property.Get("/{id}", routes.GetProperty)
		property.Post("/", accessTokenVerifierMiddleware, routes.CreateProperty)
		property.Get("/mine/all", accessTokenVerifierMiddleware, routes.MyProperties)
		property.Patch("/{id}", accessTokenVerifierMiddleware, routes.UpdateProperty)
		property.Delete("/{id}", accessTokenVerifierMiddleware, routes.DeleteProperty)
		property.Post("/draft", accessTokenVerifierMiddleware, routes.SaveDraft)
		property.Get("/draft/current", accessTokenVerifierMiddleware, routes.GetDraft)
		property.Delete("/draft/current", accessTokenVerifierMiddleware, routes.DeleteDraft)
	}

	messages := app.Party("/api/messages", accessTokenVerifierMiddleware)
	{
		messages.Post("/", routes.SendMessage)
		messages.Get("/conversations", routes.GetConversations)
		messages.Get("/conversations/{id}", routes.GetMessages)
		messages.Patch("/read", routes.MarkMessagesRead)
		messages.Post("/chat-opened", routes.ChatOpened)
		messages.Get("/unread-count", routes.UnreadCount)
		messages.Post("/refresh-unread", routes.RefreshUnread)
	}

	notificationsParty := app.Party("/api/notifications", accessTokenVerifierMiddleware)
	{
		notificationsParty.Get("/", routes.GetNotifications)
		notificationsParty.Get("/unread-count", routes.GetNotificationUnreadCount)
		notificationsParty.Patch("/{id}/read", routes.MarkNotificationRead)
		notificationsParty.Patch("/read-all", routes.MarkAllNotificationsRead)
		notificationsParty.Delete("/{id}", routes.DeleteNotification)
		notificationsParty.Delete("/", routes.DeleteAllNotifications)
		notificationsParty.Post("/reset-mask", routes.ResetNotificationMask)
	}

	payment := app.Party("/api/payments", accessTokenVerifierMiddleware)
	{
		payment.Post("/listing-fee", routes.PayListingFee)
		payment.Post("/direct", routes.PayDirect)
		payment.Get("/transactions", routes.GetTransactions)
		payment.Get("/payment-info", routes.GetPaymentInfo)
		payment.Put("/payment-info", routes.UpsertPaymentInfo)
		payment.Get("/cards", routes.GetSavedCards)
		payment.Post("/cards", routes.SaveCard)
		payment.Delete("/cards/{id}", routes.DeleteSavedCard)
	}

	reports := app.Party("/api/reports", accessTokenVerifierMiddleware)
	{
		reports.Post("/", routes.CreateReport)
		reports.Get("/mine", routes.MyReports)
	}

	upload := app.Party("/api/upload", accessTokenVerifierMiddleware)
	{
		upload.Post("/image", routes.UploadImage)
		upload.Delete("/image", routes.DeleteImage)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/properties/pending", routes.AdminListPendingProperties)
		admin.Post("/properties/{id}/approve", routes.AdminApproveProperty)
		admin.Post("/properties/{id}/reject", routes.AdminRejectProperty)
		admin.Patch("/properties/{id}/flag", routes.AdminFlagProperty)
		admin.Get("/reports", routes.AdminListReports)
		admin.Post("/reports/{id}/resolve", routes.AdminResolveReport)
		admin.Get("/users", routes.AdminListUsers)
		admin.Get("/audit-logs", routes.AdminListAuditLogs)
		admin.Patch("/users/{id}/role", utils.SuperAdminOnlyMiddleware, routes.AdminSetUserRole)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := fmt.Sprintf(":%s", port)
	log.Printf("starting server on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

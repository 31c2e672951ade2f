package routes

import (
	"strconv"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"

	"github.com/tandia00/immobilier-mali-app-sub000/services"
	"github.com/tandia00/immobilier-mali-app-sub000/utils"
)

// GetNotifications lists the caller's visible notifications, newest first.
func GetNotifications(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	notifications, err := deps.Notifications.All(ctx.Request().Context(), claims.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(notifications)
}

func GetNotificationUnreadCount(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	count, err := deps.Notifications.UnreadCount(ctx.Request().Context(), claims.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"count": count})
}

func MarkNotificationRead(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	id, err := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "invalid notification id", ctx)
		return
	}

	err = deps.Notifications.MarkRead(ctx.Request().Context(), claims.ID, uint(id))
	if err != nil {
		if services.IsCategory(err, services.CategoryNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"updated": true})
}

func MarkAllNotificationsRead(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	if err := deps.Notifications.MarkAllRead(ctx.Request().Context(), claims.ID); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"updated": true})
}

// DeleteNotification hides one notification for good.
func DeleteNotification(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	id, err := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "invalid notification id", ctx)
		return
	}

	err = deps.Notifications.Remove(ctx.Request().Context(), claims.ID, uint(id))
	if err != nil {
		switch services.ErrorCategory(err) {
		case services.CategoryNotFound:
			utils.CreateNotFound(ctx)
		case services.CategoryNetwork:
			utils.CreateError(iris.StatusServiceUnavailable, "Service Unavailable", "notification store temporarily unavailable", ctx)
		default:
			utils.CreateInternalServerError(ctx)
		}
		return
	}
	ctx.JSON(iris.Map{"deleted": true})
}

func DeleteAllNotifications(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	if err := deps.Notifications.Clear(ctx.Request().Context(), claims.ID); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"deleted": true})
}

// ResetNotificationMask drops the caller's deletion mask; previously hidden
// notifications reappear. Support tooling uses it.
func ResetNotificationMask(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	if err := deps.Notifications.ResetTombstones(ctx.Request().Context(), claims.ID); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"reset": true})
}

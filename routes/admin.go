package routes

import (
	"strconv"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/models"
	"github.com/tandia00/immobilier-mali-app-sub000/services"
	"github.com/tandia00/immobilier-mali-app-sub000/storage"
	"github.com/tandia00/immobilier-mali-app-sub000/utils"
)

// AdminListPendingProperties lists listings awaiting moderation.
func AdminListPendingProperties(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("perPage", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := storage.DB.Model(&models.Property{}).
		Where("status = ?", models.PropertyStatusPending)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var properties []models.Property
	err := query.Preload("Seller").
		Order("created_at ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&properties).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, properties, page, perPage, total)
}

// AdminApproveProperty publishes a pending listing and captures the held
// listing fee.
func AdminApproveProperty(ctx iris.Context) {
	id, err := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "invalid property id", ctx)
		return
	}

	var input ModerationInput
	if readErr := ctx.ReadJSON(&input); readErr != nil && ctx.GetContentLength() > 0 {
		utils.HandleValidationErrors(readErr, ctx)
		return
	}

	var property models.Property
	if err := storage.DB.First(&property, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	if property.Status != models.PropertyStatusPending {
		utils.CreateError(iris.StatusConflict, "Moderation Error", "property is not pending review", ctx)
		return
	}

	before := property

	result := deps.Payments.CapturePaymentForProperty(ctx.Request().Context(), property.ID)
	if !result.Success && !services.IsCategory(result.Err, services.CategoryNotFound) {
		respondPaymentError(ctx, result.Err)
		return
	}

	updates := map[string]interface{}{
		"status":       models.PropertyStatusApproved,
		"review_notes": input.Notes,
	}
	if err := storage.DB.Model(&property).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "property.approve", "property", property.ID, before, property)

	deps.Notifications.Create(ctx.Request().Context(), property.SellerID,
		models.NotificationPaymentReceipt,
		"Annonce approuvée",
		"Votre annonce a été approuvée et est maintenant visible.",
		map[string]interface{}{"property_id": property.ID},
		services.CreateOptions{Force: true})

	ctx.JSON(property)
}

// AdminRejectProperty declines a pending listing and releases the seller's
// held listing fee.
func AdminRejectProperty(ctx iris.Context) {
	id, err := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "invalid property id", ctx)
		return
	}

	var input ModerationInput
	if readErr := ctx.ReadJSON(&input); readErr != nil && ctx.GetContentLength() > 0 {
		utils.HandleValidationErrors(readErr, ctx)
		return
	}

	var property models.Property
	if err := storage.DB.First(&property, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	if property.Status != models.PropertyStatusPending {
		utils.CreateError(iris.StatusConflict, "Moderation Error", "property is not pending review", ctx)
		return
	}

	before := property

	result := deps.Payments.CancelPaymentForProperty(ctx.Request().Context(), property.ID, "listing_rejected")
	if !result.Success && !services.IsCategory(result.Err, services.CategoryNotFound) {
		respondPaymentError(ctx, result.Err)
		return
	}

	updates := map[string]interface{}{
		"status":       models.PropertyStatusRejected,
		"review_notes": input.Notes,
	}
	if err := storage.DB.Model(&property).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "property.reject", "property", property.ID, before, property)
	ctx.JSON(property)
}

// AdminFlagProperty marks a listing for follow-up without changing status.
func AdminFlagProperty(ctx iris.Context) {
	id, err := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "invalid property id", ctx)
		return
	}

	var input FlagInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var property models.Property
	if err := storage.DB.First(&property, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	before := property
	updates := map[string]interface{}{
		"is_flagged":  input.Flagged,
		"flag_reason": input.Reason,
	}
	if err := storage.DB.Model(&property).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "property.flag", "property", property.ID, before, property)
	ctx.JSON(property)
}

// AdminListReports lists user reports by status.
func AdminListReports(ctx iris.Context) {
	status := ctx.URLParamDefault("status", models.ReportStatusOpen)

	var reports []models.UserReport
	err := storage.DB.Where("status = ?", status).
		Order("created_at ASC").
		Find(&reports).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(reports)
}

// AdminResolveReport closes a report as resolved or dismissed.
func AdminResolveReport(ctx iris.Context) {
	adminID, _ := ctx.Values().Get("userID").(uint)
	id, err := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "invalid report id", ctx)
		return
	}

	var input ResolveReportInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var report models.UserReport
	if err := storage.DB.First(&report, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	if report.Status != models.ReportStatusOpen {
		utils.CreateError(iris.StatusConflict, "Moderation Error", "report is already closed", ctx)
		return
	}

	before := report
	updates := map[string]interface{}{
		"status":          input.Status,
		"resolved_by":     adminID,
		"resolution_note": input.Note,
	}
	if err := storage.DB.Model(&report).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "report.resolve", "user_report", report.ID, before, report)
	ctx.JSON(report)
}

// AdminListUsers lists users for the back office.
func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("perPage", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := storage.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var users []models.User
	err := storage.DB.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

// AdminSetUserRole changes a user's role. Super admin only.
func AdminSetUserRole(ctx iris.Context) {
	id, err := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "invalid user id", ctx)
		return
	}

	var input SetRoleInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	before := user
	if err := storage.DB.Model(&user).Update("role", input.Role).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "user.set_role", "user", user.ID, before, user)
	ctx.JSON(user)
}

// AdminListAuditLogs returns recent admin actions.
func AdminListAuditLogs(ctx iris.Context) {
	limit := ctx.URLParamIntDefault("limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var logs []models.AuditLog
	err := storage.DB.Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(logs)
}

type ModerationInput struct {
	Notes string `json:"notes" validate:"max=2048"`
}

type FlagInput struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason" validate:"max=2048"`
}

type ResolveReportInput struct {
	Status string `json:"status" validate:"required,oneof=resolved dismissed"`
	Note   string `json:"note" validate:"max=2048"`
}

type SetRoleInput struct {
	Role string `json:"role" validate:"required,oneof=user admin super_admin"`
}

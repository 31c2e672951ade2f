package routes

import (
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/models"
	"github.com/tandia00/immobilier-mali-app-sub000/storage"
	"github.com/tandia00/immobilier-mali-app-sub000/utils"
)

// CreateReport files a report against another user, optionally tied to one
// of their listings.
func CreateReport(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input CreateReportInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if input.ReportedUserID == claims.ID {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "cannot report yourself", ctx)
		return
	}

	var reported models.User
	if err := storage.DB.First(&reported, input.ReportedUserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	report := models.UserReport{
		ReporterID:     claims.ID,
		ReportedUserID: input.ReportedUserID,
		PropertyID:     input.PropertyID,
		Reason:         input.Reason,
		Details:        input.Details,
		Status:         models.ReportStatusOpen,
	}
	if err := storage.DB.Create(&report).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(report)
}

// MyReports lists reports the caller has filed.
func MyReports(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var reports []models.UserReport
	err := storage.DB.Where("reporter_id = ?", claims.ID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(reports)
}

type CreateReportInput struct {
	ReportedUserID uint   `json:"reportedUserID" validate:"required"`
	PropertyID     *uint  `json:"propertyID"`
	Reason         string `json:"reason" validate:"required,oneof=scam harassment fake_listing inappropriate other"`
	Details        string `json:"details" validate:"max=4096"`
}

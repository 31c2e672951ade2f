package routes

import (
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/models"
	"github.com/tandia00/immobilier-mali-app-sub000/services"
	"github.com/tandia00/immobilier-mali-app-sub000/storage"
	"github.com/tandia00/immobilier-mali-app-sub000/utils"
)

// PayListingFee authorizes the publication fee for the caller's property.
func PayListingFee(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input ListingFeeInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	result := deps.Payments.ProcessListingFee(ctx.Request().Context(), services.ListingFeeInput{
		UserID:     claims.ID,
		PropertyID: input.PropertyID,
		Currency:   input.Currency,
		Method:     input.Method,
	})
	if !result.Success {
		respondPaymentError(ctx, result.Err)
		return
	}

	response := iris.Map{"success": true}
	if result.Intent != nil {
		response["paymentIntentID"] = result.Intent.PaymentIntentID
		response["clientSecret"] = result.Intent.ClientSecret
		response["amount"] = result.Intent.Amount
		response["currency"] = result.Intent.Currency
		response["status"] = result.Intent.Status
	}
	ctx.JSON(response)
}

// PayDirect moves money from the caller to a property's seller.
func PayDirect(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input DirectPaymentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	result := deps.Payments.ProcessDirectPayment(ctx.Request().Context(), services.DirectPaymentInput{
		BuyerID:    claims.ID,
		PropertyID: input.PropertyID,
		Amount:     input.Amount,
		Currency:   input.Currency,
		Method:     input.Method,
		Platform:   input.Platform,
	})
	if !result.Success {
		respondPaymentError(ctx, result.Err)
		return
	}

	response := iris.Map{"success": true}
	if result.Intent != nil {
		response["paymentIntentID"] = result.Intent.PaymentIntentID
		response["clientSecret"] = result.Intent.ClientSecret
	}
	ctx.JSON(response)
}

// GetTransactions lists the caller's transaction history.
func GetTransactions(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	transactions, err := deps.Payments.TransactionsForUser(ctx.Request().Context(), claims.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(transactions)
}

// GetPaymentInfo returns the caller's payout configuration.
func GetPaymentInfo(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var info models.PaymentInfo
	err := storage.DB.Where("user_id = ?", claims.ID).First(&info).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(info)
}

// UpsertPaymentInfo saves payout details and settles any payments that were
// waiting for them.
func UpsertPaymentInfo(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input PaymentInfoInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Method == "mobile_money" && !utils.ValidatePhoneNumber(input.PhoneNumber) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid phone number format. Malian phone numbers are 8 digits starting with 2, 5, 6, 7 or 9.", ctx)
		return
	}

	var info models.PaymentInfo
	err := storage.DB.Where("user_id = ?", claims.ID).First(&info).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		utils.CreateInternalServerError(ctx)
		return
	}

	info.UserID = claims.ID
	info.Method = input.Method
	info.Provider = input.Provider
	info.PhoneNumber = utils.NormalizePhoneNumber(input.PhoneNumber)
	info.AccountName = input.AccountName

	if err := storage.DB.Save(&info).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	settled, err := deps.Payments.ResolvePendingTransfers(ctx.Request().Context(), claims.ID)
	if err != nil && !services.IsCategory(err, services.CategoryNotFound) {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"paymentInfo": info, "settledTransfers": settled})
}

// GetSavedCards lists the caller's tokenized cards.
func GetSavedCards(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var cards []models.SavedCard
	err := storage.DB.Where("user_id = ?", claims.ID).
		Order("is_default DESC, created_at DESC").
		Find(&cards).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(cards)
}

func SaveCard(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input SaveCardInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	card := models.SavedCard{
		UserID:      claims.ID,
		Brand:       input.Brand,
		Last4:       input.Last4,
		ExpMonth:    input.ExpMonth,
		ExpYear:     input.ExpYear,
		ProviderRef: input.ProviderRef,
		IsDefault:   input.IsDefault,
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if input.IsDefault {
			if err := tx.Model(&models.SavedCard{}).
				Where("user_id = ?", claims.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&card).Error
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(card)
}

func DeleteSavedCard(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	id := ctx.Params().Get("id")

	result := storage.DB.Where("id = ? AND user_id = ?", id, claims.ID).Delete(&models.SavedCard{})
	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if result.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}
	ctx.JSON(iris.Map{"deleted": true})
}

func respondPaymentError(ctx iris.Context, err error) {
	switch services.ErrorCategory(err) {
	case services.CategoryValidation:
		utils.CreateError(iris.StatusBadRequest, "Payment Error", err.Error(), ctx)
	case services.CategoryAuth:
		utils.CreateForbidden(ctx)
	case services.CategoryNotFound:
		utils.CreateNotFound(ctx)
	case services.CategoryConflict:
		utils.CreateError(iris.StatusConflict, "Payment Error", err.Error(), ctx)
	case services.CategoryNetwork:
		utils.CreateError(iris.StatusServiceUnavailable, "Payment Error", "payment provider unreachable", ctx)
	case services.CategoryProvider:
		utils.CreateError(iris.StatusBadGateway, "Payment Error", err.Error(), ctx)
	default:
		utils.CreateInternalServerError(ctx)
	}
}

type ListingFeeInput struct {
	PropertyID uint   `json:"propertyID" validate:"required"`
	Currency   string `json:"currency" validate:"required,oneof=XOF MRU USD EUR"`
	Method     string `json:"method" validate:"required,oneof=card mobile_money"`
}

type DirectPaymentInput struct {
	PropertyID uint    `json:"propertyID" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Currency   string  `json:"currency" validate:"required,oneof=XOF MRU USD EUR"`
	Method     string  `json:"method" validate:"required,oneof=card mobile_money"`
	Platform   string  `json:"platform" validate:"omitempty,oneof=ios android web"`
}

type PaymentInfoInput struct {
	Method      string `json:"method" validate:"required,oneof=mobile_money bank_transfer"`
	Provider    string `json:"provider" validate:"required,oneof=orange_money moov sama"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
	AccountName string `json:"accountName" validate:"max=128"`
}

type SaveCardInput struct {
	Brand       string `json:"brand" validate:"required,max=32"`
	Last4       string `json:"last4" validate:"required,len=4"`
	ExpMonth    int    `json:"expMonth" validate:"required,min=1,max=12"`
	ExpYear     int    `json:"expYear" validate:"required,min=2024"`
	ProviderRef string `json:"providerRef" validate:"required,max=128"`
	IsDefault   bool   `json:"isDefault"`
}

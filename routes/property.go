package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/models"
	"github.com/tandia00/immobilier-mali-app-sub000/storage"
	"github.com/tandia00/immobilier-mali-app-sub000/utils"
)

const draftTTL = 30 * 24 * time.Hour

// CreateProperty stores a new listing in draft status. It stays invisible to
// search until the listing fee is paid and an admin approves it.
func CreateProperty(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input CreatePropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	currency := input.Currency
	if currency == "" {
		currency = "XOF"
	}

	property := models.Property{
		SellerID:        claims.ID,
		Title:           input.Title,
		Description:     input.Description,
		PropertyType:    input.PropertyType,
		TransactionType: input.TransactionType,
		Address:         input.Address,
		City:            input.City,
		Country:         input.Country,
		Lat:             input.Lat,
		Lng:             input.Lng,
		Bedrooms:        input.Bedrooms,
		Bathrooms:       input.Bathrooms,
		Area:            input.Area,
		Price:           input.Price,
		Currency:        currency,
		Status:          models.PropertyStatusDraft,
	}

	if len(input.Images) > 0 {
		urls := make([]string, 0, len(input.Images))
		for _, img := range input.Images {
			res := storage.UploadBase64Image(img, uuid.NewString())
			if res["url"] != "" {
				urls = append(urls, res["url"])
			}
		}
		raw, _ := json.Marshal(urls)
		property.Images = datatypes.JSON(raw)
	}

	if err := storage.DB.Create(&property).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// The server-side draft stash is cleared once the listing is persisted
	storage.Redis.Del(context.Background(), draftKey(claims.ID))

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(property)
}

func GetProperty(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var property models.Property
	err := storage.DB.Preload("Seller").First(&property, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(property)
}

// SearchProperties lists approved listings with optional filters.
func SearchProperties(ctx iris.Context) {
	city := ctx.URLParamDefault("city", "")
	propertyType := ctx.URLParamDefault("type", "")
	transactionType := ctx.URLParamDefault("transaction", "")
	maxPrice := ctx.URLParamFloat64Default("maxPrice", 0)
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("perPage", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := storage.DB.Model(&models.Property{}).
		Where("status = ?", models.PropertyStatusApproved)
	if city != "" {
		query = query.Where("lower(city) = lower(?)", city)
	}
	if propertyType != "" {
		query = query.Where("property_type = ?", propertyType)
	}
	if transactionType != "" {
		query = query.Where("transaction_type = ?", transactionType)
	}
	if maxPrice > 0 {
		query = query.Where("price <= ?", maxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var properties []models.Property
	err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&properties).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, properties, page, perPage, total)
}

// MyProperties lists the caller's own listings in every status.
func MyProperties(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var properties []models.Property
	err := storage.DB.Where("seller_id = ?", claims.ID).
		Order("created_at DESC").
		Find(&properties).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(properties)
}

func UpdateProperty(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	params := ctx.Params()
	id := params.Get("id")

	var property models.Property
	err := storage.DB.First(&property, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	if property.SellerID != claims.ID {
		utils.CreateForbidden(ctx)
		return
	}

	var input UpdatePropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	updates := map[string]interface{}{
		"title":       input.Title,
		"description": input.Description,
		"address":     input.Address,
		"city":        input.City,
		"bedrooms":    input.Bedrooms,
		"bathrooms":   input.Bathrooms,
		"area":        input.Area,
		"price":       input.Price,
	}
	// Any edit to an approved listing sends it back through moderation
	if property.Status == models.PropertyStatusApproved {
		updates["status"] = models.PropertyStatusPending
	}

	if err := storage.DB.Model(&property).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(property)
}

func DeleteProperty(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	params := ctx.Params()
	id := params.Get("id")

	var property models.Property
	err := storage.DB.First(&property, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	if property.SellerID != claims.ID && claims.Role != "admin" && claims.Role != "super_admin" {
		utils.CreateForbidden(ctx)
		return
	}

	var images []string
	if property.Images != nil {
		_ = json.Unmarshal(property.Images, &images)
	}
	for _, img := range images {
		storage.DeleteImage(img)
	}

	if err := storage.DB.Delete(&property).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"deleted": true})
}

// SaveDraft stashes an in-progress listing form server-side so the seller
// can resume from another device.
func SaveDraft(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	body, err := ctx.GetBody()
	if err != nil || len(body) == 0 {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "draft body required", ctx)
		return
	}
	if !json.Valid(body) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "draft must be valid JSON", ctx)
		return
	}

	err = storage.Redis.Set(context.Background(), draftKey(claims.ID), body, draftTTL).Err()
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"saved": true})
}

func GetDraft(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	raw, err := storage.Redis.Get(context.Background(), draftKey(claims.ID)).Result()
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	ctx.ContentType("application/json")
	ctx.WriteString(raw)
}

func DeleteDraft(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	storage.Redis.Del(context.Background(), draftKey(claims.ID))
	ctx.JSON(iris.Map{"deleted": true})
}

func draftKey(userID uint) string {
	return fmt.Sprintf("draft:listing:%d", userID)
}

type CreatePropertyInput struct {
	Title           string   `json:"title" validate:"required,max=256"`
	Description     string   `json:"description" validate:"max=8192"`
	PropertyType    string   `json:"propertyType" validate:"required,oneof=house apartment land commercial"`
	TransactionType string   `json:"transactionType" validate:"required,oneof=sale rent"`
	Address         string   `json:"address" validate:"max=512"`
	City            string   `json:"city" validate:"required,max=128"`
	Country         string   `json:"country" validate:"max=128"`
	Lat             float64  `json:"lat"`
	Lng             float64  `json:"lng"`
	Bedrooms        int      `json:"bedrooms" validate:"min=0,max=50"`
	Bathrooms       int      `json:"bathrooms" validate:"min=0,max=50"`
	Area            int      `json:"area" validate:"min=0"`
	Price           float64  `json:"price" validate:"required,gt=0"`
	Currency        string   `json:"currency" validate:"omitempty,oneof=XOF MRU USD EUR"`
	Images          []string `json:"images" validate:"max=20"`
}

type UpdatePropertyInput struct {
	Title       string  `json:"title" validate:"required,max=256"`
	Description string  `json:"description" validate:"max=8192"`
	Address     string  `json:"address" validate:"max=512"`
	City        string  `json:"city" validate:"required,max=128"`
	Bedrooms    int     `json:"bedrooms" validate:"min=0,max=50"`
	Bathrooms   int     `json:"bathrooms" validate:"min=0,max=50"`
	Area        int     `json:"area" validate:"min=0"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

package routes

import (
	"github.com/google/uuid"
	"github.com/kataras/iris/v12"

	"github.com/tandia00/immobilier-mali-app-sub000/storage"
	"github.com/tandia00/immobilier-mali-app-sub000/utils"
)

// UploadImage stores a base64 image and returns its public URL.
func UploadImage(ctx iris.Context) {
	var input UploadImageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	result := storage.UploadBase64Image(input.Image, uuid.NewString())
	if result["url"] == "" {
		utils.CreateError(iris.StatusBadGateway, "Upload Error", "image upload failed", ctx)
		return
	}
	ctx.JSON(result)
}

// DeleteImage removes a previously uploaded image by URL.
func DeleteImage(ctx iris.Context) {
	var input DeleteImageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !storage.DeleteImage(input.URL) {
		utils.CreateError(iris.StatusBadGateway, "Upload Error", "image deletion failed", ctx)
		return
	}
	ctx.JSON(iris.Map{"deleted": true})
}

type UploadImageInput struct {
	Image string `json:"image" validate:"required"`
}

type DeleteImageInput struct {
	URL string `json:"url" validate:"required,url"`
}

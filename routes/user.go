package routes

import (
	"encoding/json"
	"strings"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/models"
	"github.com/tandia00/immobilier-mali-app-sub000/storage"
	"github.com/tandia00/immobilier-mali-app-sub000/utils"
)

func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var newUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&newUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists {
		utils.CreateError(iris.StatusConflict, "Registration Error", "Email already registered.", ctx)
		return
	}

	if userInput.PhoneNumber != "" && !utils.ValidatePhoneNumber(userInput.PhoneNumber) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid phone number format. Malian phone numbers are 8 digits starting with 2, 5, 6, 7 or 9.", ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser = models.User{
		FirstName:   userInput.FirstName,
		LastName:    userInput.LastName,
		Email:       strings.ToLower(userInput.Email),
		PhoneNumber: utils.NormalizePhoneNumber(userInput.PhoneNumber),
		Password:    hashedPassword,
	}

	storage.DB.Create(&newUser)

	returnUser(newUser, ctx)
}

func Login(ctx iris.Context) {
	var userInput LoginUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existingUser models.User
	errorMsg := "Invalid email or password."
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	returnUser(existingUser, ctx)
}

func RegisterPhone(ctx iris.Context) {
	var userInput RegisterPhoneInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !utils.ValidatePhoneNumber(userInput.PhoneNumber) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid phone number format. Malian phone numbers are 8 digits starting with 2, 5, 6, 7 or 9.", ctx)
		return
	}

	formattedPhone := utils.NormalizePhoneNumber(userInput.PhoneNumber)

	var newUser models.User
	query := storage.DB.Where("phone_number = ?", formattedPhone).Limit(1).Find(&newUser)
	if query.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if query.RowsAffected > 0 {
		utils.CreateError(iris.StatusConflict, "Registration Error", "Phone number already registered.", ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser = models.User{
		FirstName:   userInput.FirstName,
		LastName:    userInput.LastName,
		PhoneNumber: formattedPhone,
		Password:    hashedPassword,
	}

	storage.DB.Create(&newUser)

	returnUser(newUser, ctx)
}

func LoginPhone(ctx iris.Context) {
	var userInput LoginPhoneInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	errorMsg := "Invalid phone number or password."
	formattedPhone := utils.NormalizePhoneNumber(userInput.PhoneNumber)

	var existingUser models.User
	query := storage.DB.Where("phone_number = ?", formattedPhone).Limit(1).Find(&existingUser)
	if query.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if query.RowsAffected == 0 {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	returnUser(existingUser, ctx)
}

func GetUser(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var user models.User
	userExists, userExistsErr := getUserByID(&user, id)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !userExists {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(user)
}

// GetProfile returns the user's public profile, creating an empty one on
// first read.
func GetProfile(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var profile models.UserProfile
	err := storage.DB.Where("user_id = ?", id).First(&profile).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			utils.CreateInternalServerError(ctx)
			return
		}
		ctx.JSON(iris.Map{})
		return
	}
	ctx.JSON(profile)
}

func UpdateProfile(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input UpdateProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var profile models.UserProfile
	err := storage.DB.Where("user_id = ?", claims.ID).First(&profile).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		utils.CreateInternalServerError(ctx)
		return
	}

	profile.UserID = claims.ID
	profile.DisplayName = input.DisplayName
	profile.Bio = input.Bio
	profile.City = input.City
	profile.Country = input.Country
	profile.IsAgent = input.IsAgent
	profile.AgencyName = input.AgencyName

	if err := storage.DB.Save(&profile).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(profile)
}

// AlterPushToken registers or removes an Expo push token on the user.
func AlterPushToken(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var user models.User
	userExists, userExistsErr := getUserByID(&user, id)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !userExists {
		utils.CreateNotFound(ctx)
		return
	}

	var input AlterPushTokenInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	tokens := unmarshalStringSlice(user.PushTokens)
	switch input.Op {
	case "add":
		exists := false
		for _, t := range tokens {
			if t == input.Token {
				exists = true
				break
			}
		}
		if !exists {
			tokens = append(tokens, input.Token)
		}
	case "remove":
		kept := tokens[:0]
		for _, t := range tokens {
			if t != input.Token {
				kept = append(kept, t)
			}
		}
		tokens = kept
	default:
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "op must be add or remove", ctx)
		return
	}

	user.PushTokens = marshalStringSlice(tokens)
	if err := storage.DB.Model(&user).Update("push_tokens", user.PushTokens).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"updated": true})
}

func AllowsNotifications(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var user models.User
	userExists, userExistsErr := getUserByID(&user, id)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !userExists {
		utils.CreateNotFound(ctx)
		return
	}

	var input AllowsNotificationsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if err := storage.DB.Model(&user).Update("allows_notifications", input.AllowsNotifications).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"updated": true})
}

// AlterSavedProperties adds or removes a property from the user's favorites.
func AlterSavedProperties(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var user models.User
	userExists, userExistsErr := getUserByID(&user, id)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !userExists {
		utils.CreateNotFound(ctx)
		return
	}

	var input AlterSavedPropertiesInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	saved := unmarshalUintSlice(user.SavedProperties)
	switch input.Op {
	case "add":
		exists := false
		for _, p := range saved {
			if p == input.PropertyID {
				exists = true
				break
			}
		}
		if !exists {
			saved = append(saved, input.PropertyID)
		}
	case "remove":
		kept := saved[:0]
		for _, p := range saved {
			if p != input.PropertyID {
				kept = append(kept, p)
			}
		}
		saved = kept
	default:
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "op must be add or remove", ctx)
		return
	}

	user.SavedProperties = marshalUintSlice(saved)
	if err := storage.DB.Model(&user).Update("saved_properties", user.SavedProperties).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"updated": true})
}

func getAndHandleUserExists(user *models.User, email string) (exists bool, err error) {
	userExistsQuery := storage.DB.Where("email = ?", strings.ToLower(email)).Limit(1).Find(&user)

	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}

	userExists := userExistsQuery.RowsAffected > 0

	if userExists {
		return true, nil
	}

	return false, nil
}

func getUserByID(user *models.User, id string) (exists bool, err error) {
	query := storage.DB.Where("id = ?", id).Limit(1).Find(&user)
	if query.Error != nil {
		return false, query.Error
	}
	return query.RowsAffected > 0, nil
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func returnUser(user models.User, ctx iris.Context) {
	tokenPair, tokenErr := utils.CreateTokenPair(user.ID)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"ID":                  user.ID,
		"firstName":           user.FirstName,
		"lastName":            user.LastName,
		"email":               user.Email,
		"phoneNumber":         user.PhoneNumber,
		"role":                user.Role,
		"allowsNotifications": user.AllowsNotifications,
		"accessToken":         string(tokenPair.AccessToken),
		"refreshToken":        string(tokenPair.RefreshToken),
	})
}

type RegisterUserInput struct {
	FirstName   string `json:"firstName" validate:"required,max=256"`
	LastName    string `json:"lastName" validate:"required,max=256"`
	Email       string `json:"email" validate:"required,max=256,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=32"`
	Password    string `json:"password" validate:"required,min=8,max=256"`
}

type RegisterPhoneInput struct {
	FirstName   string `json:"firstName" validate:"required,max=256"`
	LastName    string `json:"lastName" validate:"required,max=256"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
	Password    string `json:"password" validate:"required,min=8,max=256"`
}

type LoginPhoneInput struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
	Password    string `json:"password" validate:"required"`
}

type LoginUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	DisplayName string `json:"displayName" validate:"max=128"`
	Bio         string `json:"bio" validate:"max=2048"`
	City        string `json:"city" validate:"max=128"`
	Country     string `json:"country" validate:"max=128"`
	IsAgent     bool   `json:"isAgent"`
	AgencyName  string `json:"agencyName" validate:"max=256"`
}

type AlterPushTokenInput struct {
	Op    string `json:"op" validate:"required"`
	Token string `json:"token" validate:"required"`
}

type AllowsNotificationsInput struct {
	AllowsNotifications *bool `json:"allowsNotifications" validate:"required"`
}

type AlterSavedPropertiesInput struct {
	Op         string `json:"op" validate:"required"`
	PropertyID uint   `json:"propertyID" validate:"required"`
}

func unmarshalStringSlice(raw datatypes.JSON) []string {
	var out []string
	if raw != nil {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func marshalStringSlice(values []string) datatypes.JSON {
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}

func unmarshalUintSlice(raw datatypes.JSON) []uint {
	var out []uint
	if raw != nil {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func marshalUintSlice(values []uint) datatypes.JSON {
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}

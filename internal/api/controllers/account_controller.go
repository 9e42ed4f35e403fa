package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"milelog/internal/models/request_models"
	"milelog/internal/services"
	"milelog/pkg/middleware"
	"milelog/pkg/utils"
)

type AccountController struct {
	accountService services.AccountServiceInterface
}

func NewAccountController(accountService services.AccountServiceInterface) *AccountController {
	return &AccountController{
		accountService: accountService,
	}
}

// Register godoc
// @Summary Register a new account
// @Description Create a new user account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body request_models.SignUpRequest true "Account registration payload"
// @Success 200 {object} utils.APIResponse{data=response_models.AccountResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /accounts/register [post]
func (a *AccountController) Register(c *gin.Context) {
	var req request_models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	account, err := a.accountService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, account, "Account created successfully")
}

// Login godoc
// @Summary Login to an account
// @Description Authenticate a user and return a token. Accounts with two-factor enabled receive an SMS code instead.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body request_models.LoginRequest true "Login payload"
// @Success 200 {object} utils.APIResponse{data=response_models.AccountLoginResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /accounts/login [post]
func (a *AccountController) Login(c *gin.Context) {
	var req request_models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	res, err := a.accountService.Login(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	message := "Login successful"
	if res.TwoFactorRequired {
		message = "Verification code sent"
	}
	utils.RespondSuccess(c, res, message)
}

// SendCode godoc
// @Summary Send a verification code
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body request_models.SendCodeRequest true "Phone in E.164 format"
// @Success 200 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /accounts/send-code [post]
func (a *AccountController) SendCode(c *gin.Context) {
	var req request_models.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := a.accountService.SendVerificationCode(c.Request.Context(), req.Phone); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Verification code sent")
}

// VerifyCode godoc
// @Summary Verify a code
// @Description Checks an SMS code. When the phone belongs to an account a token is returned and two-factor is enabled.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body request_models.VerifyCodeRequest true "Phone and code"
// @Success 200 {object} utils.APIResponse{data=response_models.AccountLoginResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 410 {object} utils.APIResponse
// @Failure 429 {object} utils.APIResponse
// @Router /accounts/verify-code [post]
func (a *AccountController) VerifyCode(c *gin.Context) {
	var req request_models.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	res, err := a.accountService.VerifyCode(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, res, "Code verified")
}

// GetCategories godoc
// @Summary List trip categories
// @Tags Categories
// @Produce json
// @Success 200 {object} utils.APIResponse{data=response_models.CategoriesResponse}
// @Router /categories [get]
func (a *AccountController) GetCategories(c *gin.Context) {
	res, err := a.accountService.GetCategories(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, res, "Categories retrieved successfully")
}

// AddCategory godoc
// @Summary Add a custom category
// @Tags Categories
// @Accept json
// @Produce json
// @Param request body request_models.AddCategoryRequest true "Category name"
// @Success 200 {object} utils.APIResponse{data=response_models.CategoriesResponse}
// @Router /categories [post]
func (a *AccountController) AddCategory(c *gin.Context) {
	var req request_models.AddCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleServiceError(c, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err))
		return
	}

	res, err := a.accountService.AddCategory(c.Request.Context(), middleware.UserEmail(c), req.Name)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, res, "Category saved")
}

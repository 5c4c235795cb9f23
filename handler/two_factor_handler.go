package handler

import (
	"main/repository"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
)

type TwoFactorHandler struct {
	Users *repository.UsersRepo
}

func NewTwoFactorHandler(users *repository.UsersRepo) *TwoFactorHandler {
	return &TwoFactorHandler{Users: users}
}

// Setup generates a new TOTP secret for the caller. The secret is not
// stored until Enable confirms the user can produce a valid code.
func (h *TwoFactorHandler) Setup(c *gin.Context) {
	user, err := h.Users.FindUserByID(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		utils.InternalError(c, "Failed to fetch user")
		return
	}

	if user.TwoFactorEnabled {
		utils.BadRequest(c, "Two-factor authentication is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "secretnotes",
		AccountName: user.Username,
	})
	if err != nil {
		utils.InternalError(c, "Failed to generate two-factor secret")
		return
	}

	utils.Success(c, gin.H{
		"secret": key.Secret(),
		"url":    key.URL(),
	})
}

// Enable turns on two-factor enforcement after verifying one code
// against the secret from Setup.
func (h *TwoFactorHandler) Enable(c *gin.Context) {
	var req struct {
		Secret string `json:"secret" binding:"required"`
		Code   string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	userID := c.GetString("user_id")
	user, err := h.Users.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch user")
		return
	}

	if user.TwoFactorEnabled {
		utils.BadRequest(c, "Two-factor authentication is already enabled")
		return
	}

	if !totp.Validate(req.Code, req.Secret) {
		utils.BadRequest(c, "Invalid two-factor code")
		return
	}

	if err := h.Users.SetTwoFactor(c.Request.Context(), userID, req.Secret, true); err != nil {
		utils.InternalError(c, "Failed to enable two-factor authentication")
		return
	}

	utils.Success(c, gin.H{"message": "Two-factor authentication enabled"})
}

// Disable turns off two-factor enforcement after verifying a code
// against the stored secret.
func (h *TwoFactorHandler) Disable(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	userID := c.GetString("user_id")
	user, err := h.Users.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch user")
		return
	}

	if !user.TwoFactorEnabled {
		utils.BadRequest(c, "Two-factor authentication is not enabled")
		return
	}

	if !totp.Validate(req.Code, user.TwoFactorSecret) {
		utils.BadRequest(c, "Invalid two-factor code")
		return
	}

	if err := h.Users.SetTwoFactor(c.Request.Context(), userID, "", false); err != nil {
		utils.InternalError(c, "Failed to disable two-factor authentication")
		return
	}

	utils.Success(c, gin.H{"message": "Two-factor authentication disabled"})
}

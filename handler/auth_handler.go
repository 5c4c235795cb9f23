package handler

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"main/dto"
	"main/model"
	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mileusna/useragent"
	"github.com/pquerna/otp/totp"
)

// AuthHandler covers registration, login, logout and token refresh.
type AuthHandler struct {
	Users     *repository.UsersRepo
	Sessions  *repository.SessionsRepo
	Blacklist *services.RedisTokenBlacklist
}

func NewAuthHandler(users *repository.UsersRepo, sessions *repository.SessionsRepo, blacklist *services.RedisTokenBlacklist) *AuthHandler {
	return &AuthHandler{
		Users:     users,
		Sessions:  sessions,
		Blacklist: blacklist,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	hashed, err := services.HashPassword(req.Password)
	if err != nil {
		utils.InternalError(c, "Failed to process registration")
		return
	}

	user := &model.User{
		UserID:   uuid.NewString(),
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
	}

	if err := h.Users.CreateUser(c.Request.Context(), user); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			utils.Conflict(c, "Username or email already exists")
			return
		}
		utils.InternalError(c, "Failed to create user")
		return
	}

	tokens, err := issueTokens(user.UserID)
	if err != nil {
		utils.InternalError(c, "Failed to generate tokens")
		return
	}

	utils.Created(c, tokens)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	user, err := h.Users.FindUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		// Same answer for unknown user and wrong password.
		utils.Unauthorized(c, "Invalid credentials")
		return
	}

	ok, err := services.VerifyPassword(user.Password, req.Password)
	if err != nil || !ok {
		utils.Unauthorized(c, "Invalid credentials")
		return
	}

	if user.TwoFactorEnabled {
		if req.TwoFactorCode == "" {
			utils.Unauthorized(c, "Two-factor code required")
			return
		}
		if !totp.Validate(req.TwoFactorCode, user.TwoFactorSecret) {
			utils.Unauthorized(c, "Invalid two-factor code")
			return
		}
	}

	tokens, err := issueTokens(user.UserID)
	if err != nil {
		utils.InternalError(c, "Failed to generate tokens")
		return
	}

	h.recordSession(c, user.UserID)

	utils.Success(c, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		utils.Unauthorized(c, "Missing or invalid access token")
		return
	}
	accessToken := strings.TrimPrefix(authHeader, "Bearer ")

	refreshToken := c.GetHeader("Refresh-Token")
	if refreshToken == "" {
		utils.BadRequest(c, "Missing refresh token")
		return
	}

	if err := h.Blacklist.BlacklistTokens(c.Request.Context(), accessToken, refreshToken); err != nil {
		utils.InternalError(c, "Failed to logout")
		return
	}

	if userID := c.GetString("user_id"); userID != "" {
		if err := h.Sessions.EndUserSessions(c.Request.Context(), userID); err != nil {
			log.Printf("[AuthHandler] failed to end sessions for user %s: %v", userID, err)
		}
	}

	utils.Success(c, gin.H{"message": "Successfully logged out"})
}

// Refresh exchanges a valid refresh token for a new token pair. The used
// refresh token is blacklisted so it cannot be replayed.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := c.GetHeader("Refresh-Token")
	if refreshToken == "" {
		utils.BadRequest(c, "Missing refresh token")
		return
	}

	if h.Blacklist.IsTokenBlacklisted(c.Request.Context(), refreshToken) {
		utils.Unauthorized(c, "Refresh token has been invalidated")
		return
	}

	userID, err := parseRefreshToken(refreshToken)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token")
		return
	}

	tokens, err := issueTokens(userID)
	if err != nil {
		utils.InternalError(c, "Failed to generate tokens")
		return
	}

	if err := h.Blacklist.BlacklistTokens(c.Request.Context(), "", refreshToken); err != nil {
		log.Printf("[AuthHandler] failed to blacklist used refresh token: %v", err)
	}

	utils.Success(c, tokens)
}

func (h *AuthHandler) recordSession(c *gin.Context, userID string) {
	ua := useragent.Parse(c.Request.UserAgent())
	displayName := strings.TrimSpace(ua.Name + " on " + ua.OS)

	now := time.Now().UTC()
	session := &model.Session{
		SessionID:      uuid.NewString(),
		UserID:         userID,
		DisplayName:    displayName,
		DeviceInfo:     c.Request.UserAgent(),
		IPAddress:      c.ClientIP(),
		CreatedAt:      now,
		ExpiresAt:      now.Add(utils.SessionDuration),
		LastActivityAt: now,
		IsActive:       true,
	}

	if err := h.Sessions.CreateSession(c.Request.Context(), session); err != nil {
		// A login without a session record is still a login.
		log.Printf("[AuthHandler] failed to record session for user %s: %v", userID, err)
	}
}

func issueTokens(userID string) (*dto.TokenResponse, error) {
	token, err := services.GenerateToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := services.GenerateRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{Token: token, Refresh: refresh}, nil
}

func parseRefreshToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(utils.JWTSecretKey), nil
	}, jwt.WithExpirationRequired(), jwt.WithIssuer(services.TokenIssuer))
	if err != nil || !token.Valid {
		return "", errors.New("invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid refresh token claims")
	}
	if tokenType, _ := claims["type"].(string); tokenType != "refresh" {
		return "", errors.New("not a refresh token")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("missing user id in refresh token")
	}
	return userID, nil
}

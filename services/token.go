package services

import (
	"time"

	"main/utils"

	"github.com/golang-jwt/jwt/v5"
)

const TokenIssuer = "secretnotes"

// GenerateToken creates a short-lived access token for a user.
func GenerateToken(userID string) (string, error) {
	return signToken(userID, "", utils.JWTExpirationTime)
}

// GenerateRefreshToken creates a long-lived refresh token. Refresh tokens
// carry type "refresh" and are rejected by the auth middleware.
func GenerateRefreshToken(userID string) (string, error) {
	return signToken(userID, "refresh", utils.RefreshTokenExpirationTime)
}

func signToken(userID, tokenType string, lifetimeSeconds int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iss":     TokenIssuer,
		"iat":     now.Unix(),
		"exp":     now.Add(time.Duration(lifetimeSeconds) * time.Second).Unix(),
	}
	if tokenType != "" {
		claims["type"] = tokenType
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(utils.JWTSecretKey))
}

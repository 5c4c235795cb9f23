package utils

import (
	"log"
	"os"
	"time"
)

var (
	JWTSecretKey               string
	JWTExpirationTime          int64
	RefreshTokenExpirationTime int64
	SessionDuration            time.Duration
)

// InitJWT loads JWT and session settings from the environment.
func InitJWT() {
	// Tests run without a .env file; fall back to workable defaults
	if os.Getenv("GO_ENV") == "test" {
		if os.Getenv("JWT_SECRET_KEY") == "" {
			os.Setenv("JWT_SECRET_KEY", "test_secret_key")
		}
	}

	JWTSecretKey = os.Getenv("JWT_SECRET_KEY")
	if JWTSecretKey == "" {
		log.Fatal("JWT Secret Key not set")
	}

	JWTExpirationTime = GetEnvAsInt64("JWT_EXPIRATION_TIME", 3600)
	RefreshTokenExpirationTime = GetEnvAsInt64("REFRESH_TOKEN_EXPIRATION_TIME", 604800)
	SessionDuration = GetEnvAsDuration("SESSION_DURATION", 24*time.Hour)
}

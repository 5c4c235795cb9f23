package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"main/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// RedisTokenBlacklist stores revoked tokens until they would have expired
// anyway, so logout takes effect immediately across instances.
type RedisTokenBlacklist struct {
	Client *redis.Client
}

func NewTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{Client: client}
}

// BlacklistTokens revokes an access/refresh token pair.
func (tb *RedisTokenBlacklist) BlacklistTokens(ctx context.Context, accessToken, refreshToken string) error {
	if err := tb.blacklistToken(ctx, accessToken); err != nil {
		return err
	}
	return tb.blacklistToken(ctx, refreshToken)
}

// IsTokenBlacklisted reports whether a token was revoked. Lookup failures
// are logged and treated as not-revoked so a Redis outage does not lock
// every user out.
func (tb *RedisTokenBlacklist) IsTokenBlacklisted(ctx context.Context, token string) bool {
	exists, err := tb.Client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		log.Printf("[TokenBlacklist] lookup failed: %v", err)
		return false
	}
	return exists > 0
}

func (tb *RedisTokenBlacklist) blacklistToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	ttl := remainingTokenLifetime(token)
	if ttl <= 0 {
		// Already expired, nothing to revoke.
		return nil
	}
	if err := tb.Client.Set(ctx, blacklistKey(token), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// remainingTokenLifetime parses the token without verifying it to find
// how long the blacklist entry needs to live.
func remainingTokenLifetime(token string) time.Duration {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		// Unparseable tokens fail validation anyway; keep an hour to be safe.
		return time.Hour
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return time.Hour
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Hour
	}
	return time.Until(time.Unix(int64(exp), 0))
}

func blacklistKey(token string) string {
	return "token_blacklist:" + utils.HashToken(token)
}

package utils

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the shared Redis client used by the rate limiter and the
// token blacklist. The job store opens its own connections from the same
// URL via RedisConnOpt.
var RedisClient *redis.Client

// InitRedisClient connects to Redis using REDIS_URL.
func InitRedisClient() {
	opts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatal("Failed to parse Redis URL:", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	RedisClient = client
}

// RedisConnOpt exposes the Redis connection settings in the form the job
// store client, inspector and worker expect.
func RedisConnOpt() asynq.RedisClientOpt {
	opts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatal("Failed to parse Redis URL:", err)
	}

	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

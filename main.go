package main

import (
	"log"
	"os"

	"main/handler"
	"main/middleware"
	"main/repository"
	"main/scheduler"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}

	requiredEnvVars := []string{
		"MONGO_URI",
		"MONGO_DB",
		"REDIS_URL",
		"JWT_SECRET_KEY",
		"PORT",
	}

	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	utils.InitValidator()
	utils.InitJWT()

	if os.Getenv("GO_ENV") != "test" {
		utils.InitMongoClient()
		utils.InitRedisClient()
	}
}

// setupRouter wires storage, the rate limiter, the expiration scheduler
// and all HTTP routes. It also returns the job store worker that runs
// expiration jobs on its own pool.
func setupRouter() (*gin.Engine, *asynq.Server, *asynq.ServeMux) {
	// Repositories
	notesRepo := repository.GetNotesRepo(utils.MongoClient)
	historyRepo := repository.GetNoteHistoryRepo(utils.MongoClient)
	usersRepo := repository.GetUsersRepo(utils.MongoClient)
	sessionsRepo := repository.GetSessionsRepo(utils.MongoClient)

	// Job store client and worker share the Redis connection settings
	redisOpt := utils.RedisConnOpt()
	jobClient := asynq.NewClient(redisOpt)
	jobInspector := asynq.NewInspector(redisOpt)
	expiration := scheduler.NewNoteExpirationScheduler(jobClient, jobInspector)
	executor := scheduler.NewNoteExpirationExecutor(notesRepo, historyRepo)
	worker, mux := scheduler.NewWorker(redisOpt, executor,
		utils.GetEnvAsInt("NOTE_EXPIRATION_CONCURRENCY", 5))

	// Rate limiting
	counterStore := services.NewRedisCounterStore(utils.RedisClient)
	limiter := services.NewRateLimiter(counterStore,
		utils.GetEnvAsBool("RATE_LIMIT_FAIL_OPEN", true))
	gate := middleware.NewRequestGate(limiter, middleware.Policy{
		Limit:         utils.GetEnvAsInt("RATE_LIMIT_DEFAULT_LIMIT", 10),
		WindowSeconds: utils.GetEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 1),
	})

	// Services and handlers
	blacklist := services.NewTokenBlacklist(utils.RedisClient)
	noteService := usecase.NewNoteService(notesRepo, historyRepo, expiration)
	noteHandler := handler.NewNoteHandler(noteService)
	authHandler := handler.NewAuthHandler(usersRepo, sessionsRepo, blacklist)
	twoFactorHandler := handler.NewTwoFactorHandler(usersRepo)
	profileHandler := handler.NewProfileHandler(usersRepo, sessionsRepo)
	statsHandler := handler.NewStatsHandler(notesRepo, sessionsRepo)
	opsHandler := handler.NewOpsHandler(limiter, expiration)

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	public := router.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}
	}

	// Protected routes
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(blacklist))
	{
		protected.POST("/auth/logout", authHandler.Logout)

		user := protected.Group("/user")
		{
			user.GET("/profile", profileHandler.GetProfile)
			user.GET("/sessions", profileHandler.GetSessions)
			user.GET("/stats", statsHandler.GetStats)
			user.POST("/2fa/setup", twoFactorHandler.Setup)
			user.POST("/2fa/enable", twoFactorHandler.Enable)
			user.POST("/2fa/disable", twoFactorHandler.Disable)
		}

		// Every note route is gated; the group policy falls through to the
		// configured defaults, and writes carry their own override.
		notesPolicy := middleware.Policy{
			Limit:         utils.GetEnvAsInt("RATE_LIMIT_NOTES_LIMIT", 0),
			WindowSeconds: utils.GetEnvAsInt("RATE_LIMIT_NOTES_WINDOW_SECONDS", 0),
		}
		writePolicy := middleware.Policy{
			Limit:         utils.GetEnvAsInt("RATE_LIMIT_NOTES_WRITE_LIMIT", 0),
			WindowSeconds: utils.GetEnvAsInt("RATE_LIMIT_NOTES_WRITE_WINDOW_SECONDS", 0),
		}

		notes := protected.Group("/notes")
		{
			notes.POST("", gate.Limit(writePolicy, notesPolicy), noteHandler.CreateNote)
			notes.GET("", gate.Limit(notesPolicy), noteHandler.GetNotes)
			notes.GET("/:id", gate.Limit(notesPolicy), noteHandler.GetNote)
			notes.PUT("/:id", gate.Limit(writePolicy, notesPolicy), noteHandler.UpdateNote)
			notes.DELETE("/:id", gate.Limit(writePolicy, notesPolicy), noteHandler.DeleteNote)
			notes.GET("/:id/history", gate.Limit(notesPolicy), noteHandler.GetNoteHistory)
		}

		// Ops endpoints are intentionally ungated
		ops := protected.Group("/ops")
		{
			ops.POST("/rate-limit/reset", opsHandler.ResetRateLimit)
			ops.POST("/notes/:id/expire", opsHandler.TriggerExpiration)
		}
	}

	return router, worker, mux
}

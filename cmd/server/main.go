package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rozgarportal/api/internal/analytics"
	"github.com/rozgarportal/api/internal/auth"
	"github.com/rozgarportal/api/internal/config"
	"github.com/rozgarportal/api/internal/db"
	"github.com/rozgarportal/api/internal/handlers"
	"github.com/rozgarportal/api/internal/initialization"
	"github.com/rozgarportal/api/internal/logging"
	"github.com/rozgarportal/api/internal/metrics"
	"github.com/rozgarportal/api/internal/middleware"
)

func main() {
	// Load .env if present; real environment variables take precedence
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	logger.Info("Starting Rozgar Portal API server", map[string]interface{}{
		"version": cfg.App.Version,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", err, nil)
		os.Exit(1)
	}

	// Connect to database
	database, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		logger.Error("Failed to open database", err, nil)
		os.Exit(1)
	}
	defer database.Close()

	database.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	database.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	database.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := database.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", err, nil)
		os.Exit(1)
	}

	logger.Info("Connected to database", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
		"name": cfg.Database.Name,
	})

	queries := db.NewQueries(database)

	// Bootstrap: schema migration, admin seeding, health checks
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	bootstrap := initialization.NewBootstrap(queries, cfg, logger)
	if err := bootstrap.Initialize(initCtx); err != nil {
		logger.Error("Failed to bootstrap application", err, nil)
		os.Exit(1)
	}

	authenticator, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Error("Failed to initialize authenticator", err, nil)
		os.Exit(1)
	}

	// Rate limit store: shared Redis window when REDIS_URL is set,
	// otherwise per-process in-memory window.
	var limiterStore middleware.LimiterStore
	var rateLimiter *middleware.RateLimiter
	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("Invalid REDIS_URL", err, nil)
			os.Exit(1)
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()
		limiterStore = middleware.NewRedisLimiterStore(rdb, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		logger.Info("Rate limiting backed by Redis", map[string]interface{}{
			"addr": redisOpts.Addr,
		})
	} else {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		defer rateLimiter.Close()
		limiterStore = rateLimiter
	}

	// Analytics tracker
	var tracker *analytics.Tracker
	if cfg.Analytics.Enabled {
		tracker = analytics.NewTracker(queries, logger,
			cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
		defer tracker.Close()
	}

	// Handlers
	authHandlers := handlers.NewAuthHandlers(queries, authenticator, tracker)
	userHandlers := handlers.NewUserHandlers(queries)
	jobHandlers := handlers.NewJobHandlers(queries, tracker)
	applicationHandlers := handlers.NewApplicationHandlers(queries, tracker)
	adminHandlers := handlers.NewAdminHandlers(queries, logger)
	analyticsHandlers := handlers.NewAnalyticsHandlers(queries, tracker)
	recommendationHandlers := handlers.NewRecommendationHandlers(queries, tracker)

	// Router and middleware (order matters)
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RequestSizeMiddleware(cfg.Server.MaxBodyBytes))
	router.Use(middleware.RateLimit(middleware.RateLimitOptions{
		Store:       limiterStore,
		Limit:       cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
		ExemptPaths: cfg.RateLimit.ExemptPaths,
		Logger:      logger,
	}))

	// Health check (no auth)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "ok",
			"service":   cfg.App.Name,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	// Prometheus metrics (no auth)
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Public analytics ingestion
	router.HandleFunc("/api/track", analyticsHandlers.Track).Methods("POST", "OPTIONS")

	// Auth routes (no auth required)
	authRouter := router.PathPrefix("/api/v1/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandlers.Register).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandlers.Login).Methods("POST", "OPTIONS")

	// API routes (JWT required)
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(auth.Middleware(authenticator, nil))

	apiRouter.HandleFunc("/auth/logout", authHandlers.Logout).Methods("POST")
	apiRouter.HandleFunc("/auth/me", authHandlers.GetCurrentUser).Methods("GET")

	apiRouter.HandleFunc("/users/me", userHandlers.GetProfile).Methods("GET")
	apiRouter.HandleFunc("/users/me", userHandlers.UpdateProfile).Methods("PUT")

	apiRouter.HandleFunc("/jobs", jobHandlers.CreateJob).Methods("POST")
	apiRouter.HandleFunc("/jobs", jobHandlers.ListJobs).Methods("GET")
	apiRouter.HandleFunc("/jobs/my-jobs", jobHandlers.MyJobs).Methods("GET")
	apiRouter.HandleFunc("/jobs/my-stats", jobHandlers.MyStats).Methods("GET")
	apiRouter.HandleFunc("/jobs/{id}", jobHandlers.GetJob).Methods("GET")
	apiRouter.HandleFunc("/jobs/{id}/publish", jobHandlers.PublishJob).Methods("PUT")

	apiRouter.HandleFunc("/recommendations", recommendationHandlers.List).Methods("GET")

	apiRouter.HandleFunc("/applications", applicationHandlers.Apply).Methods("POST")
	apiRouter.HandleFunc("/applications", applicationHandlers.ListMine).Methods("GET")
	apiRouter.HandleFunc("/applications/{id}", applicationHandlers.Get).Methods("GET")
	apiRouter.HandleFunc("/applications/{id}", applicationHandlers.Withdraw).Methods("DELETE")

	apiRouter.HandleFunc("/admin/stats", adminHandlers.GetStats).Methods("GET")
	apiRouter.HandleFunc("/admin/users", adminHandlers.ListUsers).Methods("GET")
	apiRouter.HandleFunc("/admin/users/{id}/status", adminHandlers.UpdateUserStatus).Methods("PUT")
	apiRouter.HandleFunc("/admin/jobs", adminHandlers.ListJobs).Methods("GET")
	apiRouter.HandleFunc("/admin/jobs/pending", adminHandlers.PendingJobs).Methods("GET")
	apiRouter.HandleFunc("/admin/jobs/{id}/approve", adminHandlers.ApproveJob).Methods("POST")
	apiRouter.HandleFunc("/admin/jobs/{id}/reject", adminHandlers.RejectJob).Methods("POST")
	apiRouter.HandleFunc("/admin/jobs/{id}", adminHandlers.DeleteJob).Methods("DELETE")
	apiRouter.HandleFunc("/admin/actions", adminHandlers.ListActions).Methods("GET")
	apiRouter.HandleFunc("/admin/system", adminHandlers.SystemMetrics).Methods("GET")
	apiRouter.HandleFunc("/admin/live-stats/ws", adminHandlers.LiveStats).Methods("GET")

	apiRouter.HandleFunc("/analytics/summary", analyticsHandlers.Summary).Methods("GET")

	// CORS wraps the whole router so preflights work even on paths mux
	// would otherwise 404.
	handler := middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders,
	)(router)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", map[string]interface{}{
			"address": addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", err, nil)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err, nil)
	}

	logger.Info("Server stopped", nil)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/getmentor/getmentor-escrow/config"
	"github.com/getmentor/getmentor-escrow/internal/achievement"
	"github.com/getmentor/getmentor-escrow/internal/cache"
	"github.com/getmentor/getmentor-escrow/internal/database/postgres"
	"github.com/getmentor/getmentor-escrow/internal/events"
	"github.com/getmentor/getmentor-escrow/internal/handlers"
	"github.com/getmentor/getmentor-escrow/internal/middleware"
	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	"github.com/getmentor/getmentor-escrow/pkg/httpclient"
	"github.com/getmentor/getmentor-escrow/pkg/jwt"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"github.com/getmentor/getmentor-escrow/pkg/objectstore"
	"github.com/getmentor/getmentor-escrow/pkg/profiling"
	"github.com/getmentor/getmentor-escrow/pkg/retry"
	"github.com/getmentor/getmentor-escrow/pkg/statedb"
	"github.com/getmentor/getmentor-escrow/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// ledgerHandlers groups the handlers served under /api/v1
type ledgerHandlers struct {
	identity    *handlers.IdentityHandler
	session     *handlers.SessionHandler
	reputation  *handlers.ReputationHandler
	achievement *handlers.AchievementHandler
	platform    *handlers.PlatformHandler
	token       *handlers.TokenHandler
}

// registerLedgerRoutes registers the public read routes and the wallet-authenticated write routes
func registerLedgerRoutes(group *gin.RouterGroup, h ledgerHandlers, tokenManager *jwt.TokenManager, readLimiter, writeLimiter *middleware.RateLimiter) {
	read := group.Group("", readLimiter.Middleware())
	read.GET("/mentors", h.identity.ListMentors)
	read.GET("/mentors/:address", h.identity.GetMentor)
	read.GET("/mentors/:address/sessions", h.session.ListMentorSessions)
	read.GET("/students/:address", h.identity.GetStudent)
	read.GET("/students/:address/sessions", h.session.ListStudentSessions)
	read.GET("/students/:address/achievements", h.achievement.ListStudentAchievements)
	read.GET("/sessions/:id", h.session.GetSession)
	read.GET("/achievements/:tokenId", h.achievement.GetAchievement)
	read.GET("/minters/:address", h.achievement.IsMinter)
	read.GET("/platform", h.platform.GetPlatformConfig)
	read.GET("/token", h.token.Info)
	read.GET("/token/balances/:address", h.token.BalanceOf)
	read.GET("/token/allowances/:owner/:spender", h.token.Allowance)

	// Every write acts as the wallet bound to the session token
	write := group.Group("",
		middleware.WalletSessionMiddleware(tokenManager),
		writeLimiter.Middleware(),
		middleware.BodySizeLimitMiddleware(64*1024),
	)
	write.POST("/mentors", h.identity.RegisterMentor)
	write.POST("/students", h.identity.RegisterStudent)
	write.POST("/mentors/:address/ratings", h.reputation.RateMentor)
	write.POST("/sessions", h.session.StartSession)
	write.POST("/sessions/end", h.session.EndSession)
	write.POST("/achievements", h.achievement.MintAchievement)
	write.PUT("/minters", h.achievement.SetMinterRole)
	write.PUT("/platform/fee", h.platform.UpdatePlatformFee)
	write.PUT("/platform/nft-contract", h.platform.SetNFTContract)
	write.POST("/platform/emergency-withdrawal", h.platform.WithdrawEmergency)
	write.POST("/token/approvals", h.token.Approve)
	write.POST("/token/transfers", h.token.Transfer)
	write.POST("/token/mints", h.token.Mint)
}

// buildDispatcher attaches every configured event sink
func buildDispatcher(ctx context.Context, cfg *config.Config, eventLog *postgres.Client) (*events.Dispatcher, func()) {
	dispatcher := events.NewDispatcher(cfg.Events.QueueSize)
	cleanup := func() {}

	if eventLog != nil {
		dispatcher.AddSink(events.NewPostgresSink(eventLog), retry.EventSinkConfig())
	}

	if cfg.Redis.URL != "" {
		client, err := events.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Error("Redis event sink disabled", zap.Error(err))
		} else {
			dispatcher.AddSink(events.NewRedisSink(client, cfg.Redis.Channel), retry.EventSinkConfig())
			cleanup = func() { _ = client.Close() }
		}
	}

	triggers := events.NewTriggerSink(httpclient.NewStandardClient(), map[models.EventName]string{
		models.EventSessionEnded:      cfg.EventTriggers.SessionEndedTriggerURL,
		models.EventAchievementMinted: cfg.EventTriggers.AchievementMintedTriggerURL,
	})
	if !triggers.Empty() {
		dispatcher.AddSink(triggers, retry.WebhookConfig())
	}

	if cfg.MetadataStorageEnabled() {
		store, err := objectstore.New(objectstore.Config{
			AccessKeyID:     cfg.MetadataStorage.AccessKeyID,
			SecretAccessKey: cfg.MetadataStorage.SecretAccessKey,
			BucketName:      cfg.MetadataStorage.BucketName,
			Endpoint:        cfg.MetadataStorage.Endpoint,
			Region:          cfg.MetadataStorage.Region,
		})
		if err != nil {
			logger.Fatal("Failed to initialize metadata storage client", zap.Error(err))
		}
		dispatcher.AddSink(events.NewMetadataSink(store), retry.WebhookConfig())
	}

	return dispatcher, cleanup
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting GetMentor escrow",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.InitProfiler(cfg.Profiling, cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	metrics.RecordInfrastructureMetrics()

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Open the ledger state store
	stateDB, err := statedb.Open(statedb.Options{Dir: cfg.Ledger.StateDir})
	if err != nil {
		logger.Fatal("Failed to open ledger state", zap.Error(err))
	}
	if cfg.Ledger.StateDir == "" {
		logger.Warn("STATE_DIR is empty, ledger state is kept in memory and lost on restart")
	}

	// The event log projection is optional in offline mode
	var eventLog *postgres.Client
	if cfg.Database.WorkOffline {
		logger.Warn("Event log projection is DISABLED (DB_WORK_OFFLINE)")
	} else {
		eventLog, err = postgres.NewClient(appCtx, cfg.Database.PoolConfig())
		if err != nil {
			logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
		}
	}
	// NOTE: Database migrations are run separately via the migrate command

	// Ledger and services
	registries := achievement.NewDirectory()
	ledger := services.NewLedger(stateDB, registries)
	platformService := services.NewPlatformService(ledger)
	identityService := services.NewIdentityService(ledger)
	achievementService := services.NewAchievementService(ledger)
	escrowService := services.NewEscrowService(ledger, achievementService)
	reputationService := services.NewReputationService(ledger)
	tokenService := services.NewTokenService(ledger)

	mentorDirectory := cache.NewMentorDirectory(identityService, time.Duration(cfg.Cache.MentorDirectoryTTLSeconds)*time.Second)
	identityService.UseDirectory(mentorDirectory)

	// Commit hooks run in commit order, so register the cache first
	dispatcher, closeSinks := buildDispatcher(appCtx, cfg, eventLog)
	stateDB.OnCommit(mentorDirectory.OnCommit)
	stateDB.OnCommit(dispatcher.OnCommit)
	dispatcher.Start(appCtx)

	platformConfig, err := platformService.Bootstrap(appCtx, services.BootstrapParams{
		PlatformWallet:   models.MustParseAddress(cfg.Ledger.PlatformWallet),
		LedgerAddress:    models.MustParseAddress(cfg.Ledger.LedgerAddress),
		TokenAddress:     models.MustParseAddress(cfg.Ledger.TokenAddress),
		RegistryAddress:  models.MustParseAddress(cfg.Ledger.RegistryAddress),
		InitialFee:       cfg.Ledger.InitialPlatformFee,
		WireAchievements: cfg.Ledger.BootstrapWireRegistry,
	})
	if err != nil {
		logger.Fatal("Failed to bootstrap ledger", zap.Error(err))
	}
	logger.Info("Ledger ready",
		zap.String("ledger", platformConfig.LedgerAddress.String()),
		zap.String("platform_wallet", platformConfig.Owner.String()),
		zap.Uint64("platform_fee", platformConfig.PlatformFee),
		zap.String("nft_contract", platformConfig.NFTContract.String()),
	)

	tokenManager := jwt.NewTokenManager(cfg.WalletSession.JWTSecret, cfg.WalletSession.JWTIssuer, cfg.WalletSession.SessionTTLHours)
	walletAuthService := services.NewWalletAuthService(tokenManager, services.WithSystemAddresses(ledger))

	// Initialize handlers
	h := ledgerHandlers{
		identity:    handlers.NewIdentityHandler(identityService),
		session:     handlers.NewSessionHandler(escrowService),
		reputation:  handlers.NewReputationHandler(reputationService),
		achievement: handlers.NewAchievementHandler(achievementService),
		platform:    handlers.NewPlatformHandler(platformService),
		token:       handlers.NewTokenHandler(tokenService),
	}
	walletSessionHandler := handlers.NewWalletSessionHandler(walletAuthService)

	checks := []handlers.ReadinessCheck{{Name: "ledger", Required: true, Check: stateDB.Ping}}
	if eventLog != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "event_log", Check: eventLog.Ping})
	}
	healthHandler := handlers.NewHealthHandler(checks...)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	handlers.RegisterValidators()
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS configuration - SECURITY: Only allow specific origins
	allowedOrigins := cfg.Server.AllowedOrigins
	// Allow localhost in development
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	// SECURITY: Rate limiters to prevent abuse. Writes are keyed by wallet.
	readRateLimiter := middleware.NewRateLimiter("read", 100, 200)       // 100 req/sec, burst of 200
	writeRateLimiter := middleware.NewRateLimiter("write", 5, 10)        // 5 req/sec, burst of 10
	internalRateLimiter := middleware.NewRateLimiter("internal", 20, 40) // 20 req/sec, burst of 40

	// API routes
	api := router.Group("/api")
	// Utility endpoints (not versioned - operational endpoints)
	api.GET("/healthcheck", readRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", readRateLimiter.Middleware(), gin.WrapH(promhttp.Handler()))

	// Internal routes for the web backend
	internal := api.Group("/internal",
		internalRateLimiter.Middleware(),
		middleware.InternalAPIAuthMiddleware(cfg.Auth.InternalAPIToken),
		middleware.BodySizeLimitMiddleware(16*1024),
	)
	internal.POST("/wallet-sessions", walletSessionHandler.IssueSession)
	if eventLog != nil {
		internal.GET("/events", handlers.NewEventsHandler(eventLog).ListEvents)
	}

	registerLedgerRoutes(router.Group("/api/v1"), h, tokenManager, readRateLimiter, writeRateLimiter)

	// Create HTTP server
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // SECURITY: 1 MB max header size
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Drain queued events before closing the stores they write to
	if err := dispatcher.Shutdown(ctx); err != nil {
		logger.Error("Event dispatcher did not drain", zap.Error(err))
	}
	closeSinks()
	if eventLog != nil {
		eventLog.Close()
	}
	if err := stateDB.Close(); err != nil {
		logger.Error("Failed to close ledger state", zap.Error(err))
	}
	stopApp()

	logger.Info("Server exited")
}

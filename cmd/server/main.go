package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fidolity-token-api/internal/config"
	"fidolity-token-api/internal/handlers"
	"fidolity-token-api/internal/middleware"
	"fidolity-token-api/internal/services"
	"fidolity-token-api/internal/store"
	"fidolity-token-api/pkg/logger"
	"fidolity-token-api/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	maxRequestBytes      = 1 << 20
	slowRequestThreshold = 2 * time.Second
	shutdownTimeout      = 30 * time.Second
)

// Server represents the main application server
type Server struct {
	httpServer     *http.Server
	config         *config.Config
	mongoClient    *mongo.Client
	store          store.Store
	authService    services.AuthServiceInterface
	balanceService *services.BalanceService
	rateLimiter    *ratelimiter.RateLimiter
	router         *handlers.Router
	health         *handlers.HealthHandler
	scheduler      *cron.Cron
	tvlJob         *services.TVLJob
	startTime      time.Time
}

// dependencies are the external systems the server is assembled from
type dependencies struct {
	store     store.Store
	auth      services.AuthServiceInterface
	fetcher   services.BalanceFetcher
	dbHealth  services.HealthChecker
	rpcHealth services.HealthChecker
}

func main() {
	config.LoadDotEnv()
	cfg := config.LoadConfig()

	if err := logger.Initialize(&logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		OutputPaths: cfg.Logging.OutputPaths,
		Service:     "fidolity-token-api",
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger()

	log.Info("Starting Fidolity API server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("mongodb_database", cfg.MongoDB.Database),
		zap.String("rpc_endpoint", cfg.RPC.Endpoint),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
		zap.Int("rate_limit_rpm", cfg.RateLimit.RequestsPerMinute),
		zap.String("tvl_schedule", cfg.Server.TVLSchedule),
		zap.String("environment", cfg.Logging.Environment),
	)

	server, err := NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
}

// NewServer connects to MongoDB and the Solana RPC and assembles the server
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log := logger.GetLogger()

	client, err := store.Connect(ctx, &cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB.Database)

	solanaClient := services.NewSolanaClient(&cfg.RPC)
	if err := solanaClient.IsHealthy(ctx); err != nil {
		log.Warn("Solana RPC health check failed", zap.Error(err))
	} else {
		log.Info("Solana RPC connection healthy")
	}

	s, err := newServer(cfg, dependencies{
		store:     store.NewMongoStore(db),
		auth:      services.NewAuthService(db, cfg.MongoDB.APIKeyCollection),
		fetcher:   solanaClient,
		dbHealth:  services.NewDatabaseHealthChecker(db),
		rpcHealth: services.NewRPCHealthChecker(solanaClient),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s.mongoClient = client
	return s, nil
}

func newServer(cfg *config.Config, deps dependencies) (*Server, error) {
	balanceService := services.NewBalanceService(deps.fetcher, cfg, nil)

	extra := map[string]services.HealthChecker{}
	if deps.rpcHealth != nil {
		extra["solana_rpc"] = deps.rpcHealth
	}
	health := handlers.NewHealthHandler(deps.dbHealth, extra)

	tvlJob := services.NewTVLJob(deps.store, time.Minute)
	scheduler := cron.New()
	if _, err := tvlJob.Schedule(scheduler, cfg.Server.TVLSchedule); err != nil {
		return nil, fmt.Errorf("invalid TVL schedule %q: %w", cfg.Server.TVLSchedule, err)
	}

	return &Server{
		config:         cfg,
		store:          deps.store,
		authService:    deps.auth,
		balanceService: balanceService,
		rateLimiter:    ratelimiter.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.WindowSize),
		router:         handlers.NewRouter(deps.store, balanceService, deps.auth, health),
		health:         health,
		scheduler:      scheduler,
		tvlJob:         tvlJob,
		startTime:      time.Now(),
	}, nil
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	log := logger.GetLogger()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:           s.engine(),
		ReadTimeout:       s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.startBackgroundJobs()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		s.cleanup()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.cleanup()
	log.Info("Server gracefully stopped")
	return nil
}

// engine builds the gin engine with the middleware stack and every route
func (s *Server) engine() *gin.Engine {
	engine := gin.New()
	collector := s.balanceService.GetMetricsCollector()

	engine.Use(logger.RecoveryMiddleware())
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.MetricsMiddleware(collector))
	engine.Use(middleware.ConcurrencyMiddleware(collector))
	engine.Use(middleware.SlowRequestMiddleware(slowRequestThreshold))
	engine.Use(middleware.RequestSizeMiddleware(maxRequestBytes))
	engine.Use(corsMiddleware())
	engine.Use(s.rateLimiter.Middleware())

	s.router.SetupHealthRoutes(engine)
	s.router.SetupRoutes(engine)

	engine.GET("/config.json", s.configHandler)
	engine.GET("/metrics", s.metricsHandler)
	engine.GET("/status", s.statusHandler)

	return engine
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, Cache-Control, X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// configHandler serves the public config document read by clients at startup
func (s *Server) configHandler(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, s.config.AppConfig())
}

func (s *Server) metricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "fidolity-token-api",
		"version":     handlers.Version,
		"performance": s.balanceService.GetPerformanceStats(),
	})
}

func (s *Server) statusHandler(c *gin.Context) {
	report := s.health.Check(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"service": "fidolity-token-api",
		"status":  report.Status,
		"uptime":  time.Since(s.startTime).String(),
		"version": handlers.Version,
	})
}

func (s *Server) startBackgroundJobs() {
	log := logger.GetLogger()

	go func() {
		ticker := time.NewTicker(s.config.RateLimit.CleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			s.rateLimiter.Cleanup()
		}
	}()

	s.scheduler.Start()

	// prime TVL so the first /staking/config read is not stale
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.tvlJob.Run(ctx); err != nil {
			log.Warn("Initial TVL computation failed", zap.Error(err))
		}
	}()

	log.Info("Background jobs started",
		zap.Duration("rate_limit_cleanup", s.config.RateLimit.CleanupInterval),
		zap.String("tvl_schedule", s.config.Server.TVLSchedule),
	)
}

// cleanup stops background work and closes connections
func (s *Server) cleanup() {
	log := logger.GetLogger()

	<-s.scheduler.Stop().Done()
	s.balanceService.Stop()

	if s.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mongoClient.Disconnect(ctx); err != nil {
			log.Error("Error closing MongoDB connection", zap.Error(err))
		}
	}

	if err := log.Sync(); err != nil {
		fmt.Printf("Error syncing logger: %v\n", err)
	}
}

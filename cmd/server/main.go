package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"transit/internal/app"
	"transit/internal/config"
	"transit/internal/handler"
	"transit/internal/logger"
	internalRedis "transit/internal/redis"
	"transit/internal/repository/postgres"
	"transit/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	if err := logger.Init(cfg.Environment); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			log.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	// Wire dependencies.
	server, ticketService := wireServer(db, redisClient, nrApp, cfg)

	// Background sweep materializing EXPIRED on stale tickets.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go runExpirySweeper(sweepCtx, ticketService, cfg.Sweeper.Interval)

	// Start server in goroutine.
	go func() {
		log.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")
	stopSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server plus the
// ticket service the expiry sweeper runs against.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.TicketService) {
	log := logger.Get()

	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	rateLimiter := internalRedis.NewRateLimiter(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	passRepo := postgres.NewPassRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	busRepo := postgres.NewBusRepository(db)

	// Optional routing client; estimates fall back to great-circle math
	// when it is absent.
	var mapsClient service.RouteMatrixClient
	if cfg.Maps.APIKey != "" {
		client, err := maps.NewClient(maps.WithAPIKey(cfg.Maps.APIKey))
		if err != nil {
			log.Warn("routing client init failed, using fallback estimates", zap.Error(err))
		} else {
			mapsClient = client
		}
	}

	// Initialize services.
	walletService := service.NewWalletService(walletRepo)
	fareCalculator := service.NewFareCalculator(cfg.Fare)
	estimator := service.NewDistanceEstimator(mapsClient, cacheStore, cfg.Maps.Timeout)
	provider := service.NewStripeProvider(cfg.Stripe)
	checkoutService := service.NewCheckoutService(paymentRepo, provider, lockStore)
	settlementService := service.NewSettlementService(paymentRepo, walletService, ticketRepo, passRepo, routeRepo, busRepo, cacheStore)
	ticketService := service.NewTicketService(ticketRepo)
	passService := service.NewPassService(passRepo)
	rideService := service.NewRideService(rideRepo, userRepo, estimator, fareCalculator, walletService)

	// Initialize handlers.
	userHandler := handler.NewUserHandler(userRepo)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	webhookHandler := handler.NewWebhookHandler(settlementService, cfg.Stripe.WebhookSecret)
	walletHandler := handler.NewWalletHandler(walletService)
	ticketHandler := handler.NewTicketHandler(ticketService, passService)
	rideHandler := handler.NewRideHandler(rideService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		UserHandler:     userHandler,
		CheckoutHandler: checkoutHandler,
		WebhookHandler:  webhookHandler,
		WalletHandler:   walletHandler,
		TicketHandler:   ticketHandler,
		RideHandler:     rideHandler,
		RedisClient:     redisClient,
		RateLimiter:     rateLimiter,
		RateLimit:       cfg.RateLimit,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, ticketService
}

// runExpirySweeper periodically flips stale active tickets to EXPIRED so
// reads stay side-effect free.
func runExpirySweeper(ctx context.Context, tickets *service.TicketService, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if _, err := tickets.SweepExpired(ctx); err != nil {
				logger.Get().Error("ticket expiry sweep failed", zap.Error(err))
			}
		}
	}
}

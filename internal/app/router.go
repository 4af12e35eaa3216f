package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"transit/internal/config"
	"transit/internal/handler"
	"transit/internal/middleware"
	internalRedis "transit/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler     *handler.UserHandler
	CheckoutHandler *handler.CheckoutHandler
	WebhookHandler  *handler.WebhookHandler
	WalletHandler   *handler.WalletHandler
	TicketHandler   *handler.TicketHandler
	RideHandler     *handler.RideHandler
	RedisClient     *redis.Client
	RateLimiter     internalRedis.RateLimiterInterface
	RateLimit       config.RateLimitConfig
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check, outside the rate limit.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Webhooks carry the provider's own retry semantics: no client
	// idempotency replay, no rate limiting.
	router.POST("/v1/webhooks/payment", deps.WebhookHandler.HandlePaymentEvent)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(deps.RateLimiter, deps.RateLimit.Requests, deps.RateLimit.Window))
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("", deps.UserHandler.GetAll)
		}

		// Checkout and payment routes.
		v1.POST("/checkout", deps.CheckoutHandler.CreateSession)
		v1.GET("/payments/:id", deps.CheckoutHandler.GetPayment)

		// Wallet routes.
		wallet := v1.Group("/wallet")
		{
			wallet.GET("/:userID", deps.WalletHandler.GetBalance)
			wallet.GET("/:userID/transactions", deps.WalletHandler.ListTransactions)
		}

		// Ticket routes.
		tickets := v1.Group("/tickets")
		{
			tickets.GET("", deps.TicketHandler.ListTickets)
			tickets.GET("/:id", deps.TicketHandler.GetTicket)
			tickets.POST("/:id/use", deps.TicketHandler.UseTicket)
			tickets.POST("/:id/cancel", deps.TicketHandler.CancelTicket)
		}

		// Pass routes.
		v1.GET("/passes", deps.TicketHandler.ListPasses)
		v1.GET("/passes/active", deps.TicketHandler.GetActivePass)

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.StartRide)
			rides.GET("/active", deps.RideHandler.GetActiveRide)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/end", deps.RideHandler.EndRide)
		}

		// Fare quote.
		v1.GET("/fare/estimate", deps.RideHandler.QuoteFare)
	}

	return router
}

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/config"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers"
	"github.com/ignatzorin/freelance-escrow/internal/http/middleware"
	"github.com/ignatzorin/freelance-escrow/internal/metrics"
)

func SetupRouter(
	cfg *config.Config,
	tokens middleware.TokenParser,
	healthHandler *handlers.HealthHandler,
	accountHandler *handlers.AccountHandler,
	orderHandler *handlers.OrderHandler,
	catalogHandler *handlers.CatalogHandler,
	requestHandler *handlers.EscrowRequestHandler,
	reviewHandler *handlers.ReviewHandler,
	adminHandler *handlers.AdminHandler,
	wsHandler *handlers.WSHandler,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.Middleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")

	// Логин администратора ограничен жёстче остального API.
	api.POST("/admin/login", middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod), adminHandler.Login)

	// WebSocket принимает токен в query, поэтому живёт вне защищённой группы.
	if wsHandler != nil {
		api.GET("/ws", wsHandler.Handle)
		api.GET("/admin/ws", wsHandler.HandleAdmin)
	}

	// Публичный каталог
	api.GET("/services", catalogHandler.List)
	api.GET("/services/:id", catalogHandler.Get)
	api.GET("/users/:id/reviews", reviewHandler.ListForUser)
	api.GET("/users/:id/rating", reviewHandler.Rating)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		protected.GET("/me", accountHandler.Me)
		protected.PUT("/me/role", accountHandler.SwitchRole)
		protected.GET("/balance", accountHandler.Balance)
		protected.GET("/transactions", accountHandler.ListTransactions)

		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders/my", orderHandler.ListMine)
		protected.GET("/orders/active", orderHandler.ListActive)
		protected.GET("/orders/assigned", orderHandler.ListAssigned)
		protected.GET("/orders/:id", orderHandler.GetOrder)
		protected.POST("/orders/:id/responses", orderHandler.Respond)
		protected.GET("/orders/:id/responses", orderHandler.ListResponses)
		protected.POST("/orders/:id/select", orderHandler.SelectFreelancer)
		protected.POST("/orders/:id/confirm", orderHandler.ConfirmCompletion)
		protected.GET("/responses/my", orderHandler.ListMyResponses)

		protected.GET("/services/my", catalogHandler.ListMine)
		protected.POST("/services", catalogHandler.Create)
		protected.DELETE("/services/:id", catalogHandler.Delete)
		protected.POST("/services/:id/order", catalogHandler.PlaceOrder)

		protected.POST("/requests/withdraw", requestHandler.Withdraw)
		protected.POST("/requests/topup", requestHandler.Topup)
		protected.GET("/requests/my", requestHandler.ListMine)

		protected.POST("/reviews", reviewHandler.Create)
		protected.GET("/reviews/can", reviewHandler.CanReview)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens))
	admin.Use(middleware.AdminOnly())
	{
		admin.GET("/requests", requestHandler.ListPending)
		admin.POST("/requests/:id/resolve", requestHandler.Resolve)
		admin.GET("/orders/awaiting", adminHandler.ListAwaiting)
		admin.POST("/orders/:id/confirm", adminHandler.ConfirmOrder)
		admin.POST("/orders/:id/reject", adminHandler.RejectOrder)
		admin.GET("/stats", adminHandler.Stats)
	}

	return r
}

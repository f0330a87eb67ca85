package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/metrics"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StorefrontFacade, m *metrics.Metrics, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Metrics(m))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	cartHandler := handlers.NewCartHandler(facade)
	checkoutHandler := handlers.NewCheckoutHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade, facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/health", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	api := engine.Group("/api")
	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))

	cart := authed.Group("/cart")
	cart.GET("", cartHandler.Get)
	cart.POST("/items", cartHandler.Add)
	cart.PUT("/items/:productId", cartHandler.Update)
	cart.DELETE("/items/:productId", cartHandler.Remove)

	checkout := authed.Group("/checkout")
	checkout.GET("", checkoutHandler.State)
	checkout.POST("/shipping", checkoutHandler.Shipping)
	checkout.POST("/payment", checkoutHandler.Payment)
	checkout.POST("/back", checkoutHandler.Back)
	checkout.POST("/place", checkoutHandler.Place)
	checkout.GET("/success/:orderId", checkoutHandler.Success)

	orders := authed.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.POST("/:id/cancel", orderHandler.Cancel)

	admin := authed.Group("/admin/orders")
	admin.Use(middleware.StaffOnly())
	admin.GET("", adminHandler.List)
	admin.GET("/:id", adminHandler.Get)
	admin.PUT("/:id/status", adminHandler.UpdateStatus)
	admin.PUT("/:id/payment", adminHandler.UpdatePayment)
	admin.POST("/:id/cancel", adminHandler.Cancel)

	return engine
}

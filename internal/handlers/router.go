package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Routes struct {
	Health      *HealthHandler
	Webhooks    *WebhookHandler
	Orders      *OrderHandler
	AdminOrders *AdminOrderHandler
	Reviews     *ReviewHandler

	// AdminAuth guards every /admin route.
	AdminAuth gin.HandlerFunc
	Metrics   http.Handler
	Swagger   bool
}

func NewRouter(r Routes) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if r.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if r.Metrics != nil {
		router.GET("/metrics", gin.WrapH(r.Metrics))
	}
	router.GET("/health", r.Health.Health)

	api := router.Group("/api/v1")

	// Webhooks authenticate with signatures, not tokens.
	api.POST("/webhooks/stripe", r.Webhooks.Stripe)
	api.POST("/webhooks/printify", r.Webhooks.Printify)

	api.GET("/orders/session/:session_id", r.Orders.GetBySession)
	api.GET("/shipping-methods", r.Orders.ShippingMethods)

	admin := api.Group("/admin")
	admin.Use(r.AdminAuth)

	admin.GET("/orders/:order_id/history", r.AdminOrders.History)
	admin.POST("/orders/:order_id/retry", r.AdminOrders.Retry)
	admin.POST("/orders/cleanup", r.AdminOrders.Cleanup)

	admin.GET("/reviews", r.Reviews.List)
	admin.GET("/reviews/:review_id", r.Reviews.Get)
	admin.POST("/reviews/:review_id/process", r.Reviews.Process)
	admin.POST("/reviews/:review_id/manual-upload", r.Reviews.ManualUpload)

	return router
}

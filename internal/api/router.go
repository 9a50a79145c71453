package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 64 << 10

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, ginMode string, logger *slog.Logger) *gin.Engine {
	gin.SetMode(ginMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware())
	router.Use(BodyLimitMiddleware(maxBodyBytes))

	router.GET("/health", handler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/checkout", handler.CreateCheckout)
		v1.GET("/checkout/:sku", handler.QuickCheckout)
		v1.GET("/products/featured", handler.FeaturedProduct)

		orders := v1.Group("/orders")
		{
			orders.GET("/:orderId", handler.GetOrder)
			orders.POST("/:orderId/payments", handler.PlaceOrder)
		}
	}

	// Called by the gateways; authenticated by signature, not by session.
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/dlocal", handler.DLocalNotification)
		webhooks.POST("/mercadopago", handler.MercadoPagoNotification)
	}

	return router
}

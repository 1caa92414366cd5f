package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/dominatehq/payportal/internal/config"
	"github.com/dominatehq/payportal/internal/pubsub"
	"github.com/dominatehq/payportal/internal/server/http/handlers"
	"github.com/dominatehq/payportal/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.PortalFacade, events *pubsub.Manager, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	orderHandler := handlers.NewOrderHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade)
	licenseHandler := handlers.NewLicenseHandler(facade)
	streamHandler := handlers.NewStreamHandler(facade, events, cfg.OrderRecheckDelay, logger)

	engine.GET("/healthz", func(c *gin.Context) {
		if err := facade.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	api.Use(middleware.AuthRequired(cfg.AuthCookieName))

	api.GET("/order/:id", orderHandler.Get)
	api.GET("/order/:id/stream", streamHandler.Stream)
	api.POST("/order/:id/payment", orderHandler.SubmitPayment)

	api.PATCH("/order-admin/:id", adminHandler.UpdateStatus)
	api.GET("/order-admin/:id/issuances", adminHandler.Issuances)

	api.POST("/licenses", licenseHandler.Create)
	api.GET("/licenses/user/:id", licenseHandler.ListForUser)
	api.POST("/licenses/user/:id", licenseHandler.AssignToUser)
	api.POST("/licenses/activate-next/:id", licenseHandler.ActivateNext)

	return engine
}

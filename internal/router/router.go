// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tallerpiolin/inventory-backend/internal/config"
	"github.com/tallerpiolin/inventory-backend/internal/handlers"
	"github.com/tallerpiolin/inventory-backend/internal/metrics"
	"github.com/tallerpiolin/inventory-backend/internal/middleware"
	"github.com/tallerpiolin/inventory-backend/internal/realtime"
	"github.com/tallerpiolin/inventory-backend/internal/services"
)

const version = "2.2.0"

// Initialize builds the HTTP engine. hub may be nil when realtime is disabled.
func Initialize(svc *services.Services, hub *realtime.Hub, limiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	// Initialize handlers
	productHandler := handlers.NewProductHandler(svc.Catalog, svc.Resolver, svc.Labels)
	saleHandler := handlers.NewSaleHandler(svc.Sales, svc.Reports, nil)
	notificationHandler := handlers.NewNotificationHandler(svc.Ledger)
	backupHandler := handlers.NewBackupHandler(svc.Backup)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	if limiter != nil {
		r.Use(limiter.Middleware())
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"version":       version,
			"products":      len(svc.Catalog.List()),
			"unread":        svc.Ledger.Unread(),
			"realtime":      hub != nil,
			"remoteStorage": svc.Storage.Remote(),
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/search", productHandler.SearchProducts)
			products.GET("/barcode/:code", productHandler.GetProductByBarcode)
			products.GET("/barcode/:code/check", productHandler.CheckBarcode)
			products.POST("/barcode/generate", productHandler.GenerateBarcode)
			products.GET("/:id", productHandler.GetProduct)
			products.GET("/:id/label", productHandler.GetLabel)
			products.POST("", productHandler.CreateProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
		}

		v1.GET("/categories", productHandler.GetCategories)
		v1.GET("/brands", productHandler.GetBrands)

		sales := v1.Group("/sales")
		{
			sales.POST("", saleHandler.CreateSale)
			sales.GET("", saleHandler.GetSales)
			sales.GET("/stats", saleHandler.GetSalesStats)
		}

		v1.GET("/reports/inventory", saleHandler.GetInventoryReport)

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.GET("/unread", notificationHandler.GetUnreadCount)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("/read", notificationHandler.DeleteRead)
			notifications.DELETE("/:id", notificationHandler.DeleteNotification)
			notifications.DELETE("", notificationHandler.DeleteAll)
			notifications.POST("/prune", notificationHandler.Prune)
		}

		backup := v1.Group("/backup")
		{
			backup.GET("/export", backupHandler.Export)
			backup.POST("/import", backupHandler.Import)
			backup.POST("/upload", backupHandler.Upload)
		}

		v1.POST("/admin/clear", backupHandler.ClearAll)

		if hub != nil {
			stream := realtime.NewStreamHandler(hub, cfg.CORS.AllowedOrigins)
			v1.GET("/realtime", stream.Serve)
		}
	}

	// Static file serving for locally stored backups and labels (development)
	if cfg.Environment == "development" && !svc.Storage.Remote() {
		r.Static("/files", cfg.Backup.Dir)
	}

	return r
}

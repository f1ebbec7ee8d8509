// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openlot/openlot-backend/internal/config"
	"github.com/openlot/openlot-backend/internal/handlers"
	"github.com/openlot/openlot-backend/internal/middleware"
	"github.com/openlot/openlot-backend/internal/services"
	"github.com/openlot/openlot-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db)
	marketService := services.NewMarketService(db, cfg, notificationService)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(marketService)
	complaintHandler := handlers.NewComplaintHandler(marketService)
	accountHandler := handlers.NewAccountHandler(marketService, notificationService)
	adminHandler := handlers.NewAdminHandler(marketService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Product lifecycle routes
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)

			// Capability-gated routes: authorization is the product capability
			// secret, not the JWT identity.
			products.GET("/:id/bids", productHandler.GetBids)
			products.POST("/:id/selection", middleware.MutationRateLimit(), productHandler.ChooseConsumer)
			products.POST("/:id/confirmation", middleware.MutationRateLimit(), productHandler.ConfirmOrder)

			// Authenticated routes
			protected := products.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", middleware.MutationRateLimit(), productHandler.CreateProduct)
				protected.POST("/:id/bids", middleware.MutationRateLimit(), productHandler.PlaceBid)
				protected.POST("/:id/order", middleware.MutationRateLimit(), productHandler.SubmitOrder)
				protected.POST("/:id/complaints", middleware.MutationRateLimit(), productHandler.FileComplaint)
			}
		}

		// Complaint routes
		complaints := v1.Group("/complaints")
		{
			complaints.GET("", complaintHandler.GetOpenComplaints)
			complaints.GET("/:id", complaintHandler.GetComplaint)
		}

		// Account routes
		accounts := v1.Group("/accounts")
		accounts.Use(middleware.AuthRequired())
		{
			accounts.GET("/me", accountHandler.GetMyAccount)
			accounts.GET("/me/bids", accountHandler.GetMyBids)
			accounts.GET("/me/notifications", accountHandler.GetMyNotifications)
			accounts.PUT("/me/notifications/:id", accountHandler.MarkNotificationRead)
		}

		// Arbiter routes, gated by the arbiter capability secret
		admin := v1.Group("/admin")
		{
			admin.POST("/complaints/:id/resolution", middleware.MutationRateLimit(), adminHandler.ResolveDispute)
			admin.POST("/accounts/:id/credits", middleware.MutationRateLimit(), adminHandler.CreditAccount)
		}
	}

	return r
}

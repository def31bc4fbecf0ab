package main

import (
	"log"
	"net/http"
	"time"

	"cafeteria/internal/config"
	"cafeteria/internal/database"
	"cafeteria/internal/handlers"
	"cafeteria/internal/migrations"
	"cafeteria/internal/redis"
	"cafeteria/internal/repository"
	"cafeteria/internal/services"
	"cafeteria/pkg/zenopay"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Run migrations and seed defaults
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	// Initialize ZenoPay client
	gateway := zenopay.NewClient(cfg.ZenoPayBaseURL, cfg.ZenoPayAccountID, cfg.ZenoPayAPIKey, cfg.ZenoPaySecretKey)

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	cashierRepo := repository.NewCashierRepository(db)

	// Initialize services
	orderService := services.NewOrderService(orderRepo, redisClient)
	menuService := services.NewMenuService(menuRepo, categoryRepo, redisClient, time.Duration(cfg.CacheTTL)*time.Second)
	cashierService := services.NewCashierService(cashierRepo)
	cartService := services.NewCartService(redisClient, time.Duration(cfg.CartTTL)*time.Second)
	qrService := services.NewQRService(orderService)
	paymentService := services.NewPaymentService(orderService, gateway, redisClient,
		services.PaymentConfig{
			PollInterval: time.Duration(cfg.PaymentPollInterval) * time.Second,
			MaxAttempts:  cfg.PaymentMaxAttempts,
			CallbackURL:  cfg.CallbackBaseURL + "/api/payment/callback",
			DefaultEmail: cfg.DefaultCustomerEmail,
		},
		services.Callbacks{
			OnSuccess: func(orderID, customerName, phoneNumber string) {
				log.Printf("Payment successful for order %s (%s, %s)", orderID, customerName, phoneNumber)
			},
			OnFailure: func(orderID, message string) {
				log.Printf("Payment failed for order %s: %s", orderID, message)
			},
			OnTimeout: func(orderID string) {
				log.Printf("Payment verification timed out for order %s; left pending for manual reconciliation", orderID)
			},
		})

	// Initialize handlers
	apiHandler := handlers.NewAPIHandler(menuService, orderService, cashierService, cartService, qrService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cartService, gateway)
	streamHandler := handlers.NewStreamHandler(orderService, redisClient)

	// Setup routes
	router := gin.Default()

	// CORS middleware for the portal frontends
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "cafeteria"})
	})

	api := router.Group("/api")
	{
		// Payment
		api.POST("/payment/create", paymentHandler.CreatePayment)
		api.GET("/payment/status", paymentHandler.PaymentStatus)
		api.POST("/payment/checkout", paymentHandler.Checkout)
		api.GET("/payment/session/:session_id", paymentHandler.GetSession)
		api.POST("/payment/session/:session_id/check", paymentHandler.CheckSession)
		api.DELETE("/payment/session/:session_id", paymentHandler.CancelSession)
		api.POST("/payment/callback", paymentHandler.PaymentCallback)

		// Menu
		api.GET("/menu", apiHandler.GetMenu)
		api.POST("/menu", apiHandler.CreateMenuItem)
		api.PUT("/menu", apiHandler.UpdateMenuItem)
		api.DELETE("/menu/:id", apiHandler.DeleteMenuItem)

		// Categories
		api.GET("/categories", apiHandler.GetCategories)
		api.POST("/categories", apiHandler.CreateCategory)
		api.PUT("/categories", apiHandler.UpdateCategory)

		// Orders
		api.GET("/orders", apiHandler.GetOrders)
		api.POST("/orders", apiHandler.CreateOrder)
		api.PUT("/orders", apiHandler.UpdateOrder)
		api.GET("/orders/stream", streamHandler.StreamOrders)
		api.GET("/orders/:id/qr", apiHandler.GetOrderQR)
		api.POST("/orders/resolve-qr", apiHandler.ResolveQR)

		// Cashiers
		api.GET("/cashiers", apiHandler.GetCashiers)
		api.POST("/cashiers", apiHandler.CreateCashier)
		api.PUT("/cashiers", apiHandler.UpdateCashier)

		// Cart
		api.GET("/cart/:device_id", apiHandler.GetCart)
		api.DELETE("/cart/:device_id", apiHandler.ClearCart)
		api.POST("/cart/:device_id/items", apiHandler.AddCartItem)
		api.PUT("/cart/:device_id/items/:item_id", apiHandler.SetCartItemQuantity)
		api.DELETE("/cart/:device_id/items/:item_id", apiHandler.RemoveCartItem)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

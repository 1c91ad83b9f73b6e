package router

import (
	"log"
	"os"
	"time"

	"github.com/Tg-307/Project---1-Campus-Connect/database"
	auth_handlers "github.com/Tg-307/Project---1-Campus-Connect/handlers/auth"
	institute_handlers "github.com/Tg-307/Project---1-Campus-Connect/handlers/institute"
	issue_handlers "github.com/Tg-307/Project---1-Campus-Connect/handlers/issue"
	marketplace_handlers "github.com/Tg-307/Project---1-Campus-Connect/handlers/marketplace"
	notification_handlers "github.com/Tg-307/Project---1-Campus-Connect/handlers/notification"
	order_handlers "github.com/Tg-307/Project---1-Campus-Connect/handlers/order"
	"github.com/Tg-307/Project---1-Campus-Connect/services"
	"github.com/Tg-307/Project---1-Campus-Connect/services/spaces"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/auth"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/cache"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, store *database.GORMStore) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "campus-connect-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	db := store.DB()

	// Redis backs brute force protection; without it logins still work,
	// just without lockouts.
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Object storage is optional; the upload endpoint answers 503 when
	// it is not configured.
	var spacesClient *spaces.Client
	if os.Getenv("SPACES_ACCESS_KEY") != "" {
		spacesClient, err = spaces.NewClient(spaces.Config{
			AccessKey: os.Getenv("SPACES_ACCESS_KEY"),
			SecretKey: os.Getenv("SPACES_SECRET_KEY"),
			Bucket:    os.Getenv("SPACES_BUCKET"),
			Region:    os.Getenv("SPACES_REGION"),
			Endpoint:  os.Getenv("SPACES_ENDPOINT"),
			CDNURL:    os.Getenv("SPACES_CDN_URL"),
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize object storage: %v. Image uploads will be disabled.", err)
		}
	}

	notificationService := services.NewNotificationService(db)
	orderService := services.NewOrderService(db, notificationService)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	instituteHandler := institute_handlers.NewInstituteHandler(db)
	marketplaceHandler := marketplace_handlers.NewMarketplaceHandler(db, spacesClient)
	orderHandler := order_handlers.NewOrderHandler(orderService)
	issueHandler := issue_handlers.NewIssueHandler(db, notificationService)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			return response.ServiceUnavailable(c, "Database is unreachable")
		}
		return response.SuccessWithMessage(c, "pong", nil)
	})

	api := app.Group("/api")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Me)

	// Institutes (public, used by the registration form)
	api.Get("/institutes", instituteHandler.ListInstitutes)

	// Categories (protected)
	categories := api.Group("/categories", authMiddleware.Required())
	categories.Get("/", marketplaceHandler.ListCategories)
	categories.Post("/", marketplaceHandler.CreateCategory)

	// Listings (protected)
	listings := api.Group("/listings", authMiddleware.Required())
	listings.Get("/", marketplaceHandler.ListListings)
	listings.Post("/", marketplaceHandler.CreateListing)
	listings.Get("/:id", marketplaceHandler.GetListing)
	listings.Put("/:id", marketplaceHandler.UpdateListing)
	listings.Patch("/:id", marketplaceHandler.UpdateListing)
	listings.Delete("/:id", marketplaceHandler.DeleteListing)
	listings.Post("/:id/upload_image", marketplaceHandler.UploadImage)

	// Orders (protected)
	orders := api.Group("/orders", authMiddleware.Required())
	orders.Get("/", orderHandler.ListOrders)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Patch("/:id/accept", orderHandler.AcceptOrder)
	orders.Patch("/:id/reject", orderHandler.RejectOrder)
	orders.Patch("/:id/complete", orderHandler.CompleteOrder)
	orders.Patch("/:id/cancel", orderHandler.CancelOrder)

	// Issues (protected)
	issues := api.Group("/issues", authMiddleware.Required())
	issues.Get("/", issueHandler.ListIssues)
	issues.Post("/", issueHandler.CreateIssue)
	issues.Get("/:id", issueHandler.GetIssue)
	issues.Patch("/:id", issueHandler.UpdateIssue)
	issues.Patch("/:id/admin_update", issueHandler.UpdateIssue)

	// Notifications (protected)
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.ListNotifications)
	notifications.Get("/unread_count", notificationHandler.UnreadCount)
	notifications.Patch("/:id/mark_read", notificationHandler.MarkAsRead)
	notifications.Patch("/mark_all_read", notificationHandler.MarkAllAsRead)
}

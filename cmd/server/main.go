package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/locallens/locallens-backend/config"
	"github.com/locallens/locallens-backend/internal/app/controller"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/db"
	"github.com/locallens/locallens-backend/internal/events"
	"github.com/locallens/locallens-backend/internal/middleware"
	"github.com/locallens/locallens-backend/internal/router"
	"github.com/locallens/locallens-backend/internal/scheduler"
	"github.com/locallens/locallens-backend/internal/storage"
	"github.com/locallens/locallens-backend/internal/websocket"
	"github.com/locallens/locallens-backend/pkg/identity"
	"github.com/locallens/locallens-backend/pkg/logger"
	"github.com/locallens/locallens-backend/pkg/payment/razorpay"
	redisclient "github.com/locallens/locallens-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting LocalLens Backend Server", map[string]interface{}{
		"environment":   cfg.Server.Environment,
		"port":          cfg.Server.Port,
		"auth_provider": cfg.Auth.Provider,
	})

	ctx := context.Background()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.SeedAdmin(db.GetDB(), cfg.Auth.BootstrapAdminEmail); err != nil {
		logger.Warn("Failed to seed bootstrap admin", map[string]interface{}{
			"error": err.Error(),
		})
	}

	provider, closeRedis := newIdentityProvider(ctx, cfg)
	defer closeRedis()

	publisher := newPublisher(cfg)
	defer publisher.Close()

	s3Storage := storage.NewS3Storage(ctx, cfg.S3)
	if cfg.S3.Bucket == "" {
		logger.Warn("S3_BUCKET is not set, media uploads will fail")
	}

	var gateway service.PaymentGateway
	if cfg.Payment.Razorpay.Enabled() {
		client, err := razorpay.NewClient(razorpay.Config{
			KeyID:     cfg.Payment.Razorpay.KeyID,
			KeySecret: cfg.Payment.Razorpay.KeySecret,
			BaseURL:   cfg.Payment.Razorpay.BaseURL,
		})
		if err != nil {
			logger.Fatal("Failed to initialize payment gateway", err)
		}
		gateway = client
	} else {
		logger.Warn("Razorpay credentials not set, online payment is disabled")
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize repositories
	database := db.GetDB()
	userRepo := repository.NewUserRepository(database)
	shopRepo := repository.NewShopRepository(database)
	productRepo := repository.NewProductRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	reservationRepo := repository.NewReservationRepository(database)
	addressRepo := repository.NewAddressRepository(database)
	cartRepo := repository.NewCartRepository(database)
	wishlistRepo := repository.NewWishlistRepository(database)
	reviewRepo := repository.NewReviewRepository(database)
	bannerRepo := repository.NewBannerRepository(database)
	couponRepo := repository.NewCouponRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, hub)
	authService := service.NewAuthService(userRepo, provider)
	shopService := service.NewShopService(shopRepo, userRepo, notificationService, publisher)
	productService := service.NewProductService(productRepo, shopRepo, s3Storage)
	orderService := service.NewOrderService(service.OrderServiceDeps{
		Orders:        orderRepo,
		Products:      productRepo,
		Shops:         shopRepo,
		Cart:          cartRepo,
		Addresses:     addressRepo,
		Coupons:       couponRepo,
		Notifications: notificationService,
		Publisher:     publisher,
		Gateway:       gateway,
		Currency:      cfg.Payment.Razorpay.Currency,
	})
	reservationService := service.NewReservationService(reservationRepo, productRepo, shopRepo, notificationService, publisher)
	addressService := service.NewAddressService(addressRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	reviewService := service.NewReviewService(reviewRepo, shopRepo)
	bannerService := service.NewBannerService(bannerRepo, s3Storage)
	couponService := service.NewCouponService(couponRepo)
	userService := service.NewUserService(userRepo)

	// Background jobs
	jobs := scheduler.New(cfg.Scheduler, reservationService, shopService)
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}
	defer jobs.Stop()

	// Setup router
	r := router.NewRouter(
		router.Controllers{
			Auth:         controller.NewAuthController(authService),
			Shop:         controller.NewShopController(shopService),
			Product:      controller.NewProductController(productService),
			Upload:       controller.NewUploadController(s3Storage, s3Storage),
			Address:      controller.NewAddressController(addressService),
			Order:        controller.NewOrderController(orderService, cfg.Payment.Razorpay.KeyID),
			Reservation:  controller.NewReservationController(reservationService),
			Banner:       controller.NewBannerController(bannerService),
			Coupon:       controller.NewCouponController(couponService),
			Review:       controller.NewReviewController(reviewService),
			Wishlist:     controller.NewWishlistController(wishlistService),
			Cart:         controller.NewCartController(cartService),
			Notification: controller.NewNotificationController(notificationService),
			User:         controller.NewUserController(userService),
			WebSocket:    controller.NewWebSocketController(hub, cfg.CORS.AllowedOrigins),
		},
		middleware.NewAuthMiddleware(authService),
		cfg,
		db.Ping,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}

// newIdentityProvider builds the configured token verifier. The returned func releases
// the Redis connection backing JWT revocation, if any.
func newIdentityProvider(ctx context.Context, cfg *config.Config) (identity.Provider, func()) {
	noop := func() {}

	if cfg.Auth.Provider == "firebase" {
		provider, err := identity.NewFirebaseProvider(ctx, cfg.Auth.FirebaseCredentialsFile, cfg.Auth.FirebaseProjectID)
		if err != nil {
			logger.Fatal("Failed to initialize Firebase", err)
		}
		return provider, noop
	}

	if cfg.Redis.Addr == "" {
		logger.Warn("REDIS_ADDR is not set, logout cannot revoke tokens")
		return identity.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTokenExpiry, nil), noop
	}
	if err := redisclient.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize Redis", err)
	}
	revocations := redisclient.NewRevocationList(redisclient.GetClient())
	provider := identity.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTokenExpiry, revocations)
	return provider, func() {
		if err := redisclient.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}
}

// newPublisher connects to RabbitMQ when configured and falls back to a no-op publisher
func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.Events.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL is not set, domain events are disabled")
		return events.NoopPublisher{}
	}
	publisher, err := events.NewRabbitPublisher(cfg.Events.RabbitMQURL, cfg.Events.Exchange)
	if err != nil {
		logger.Warn("Failed to connect to RabbitMQ, domain events are disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return events.NoopPublisher{}
	}
	return publisher
}

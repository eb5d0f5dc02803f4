package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/config"
	"github.com/locallens/locallens-backend/internal/app/controller"
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/middleware"
)

// Controllers groups every HTTP handler set the router mounts
type Controllers struct {
	Auth         *controller.AuthController
	Shop         *controller.ShopController
	Product      *controller.ProductController
	Upload       *controller.UploadController
	Address      *controller.AddressController
	Order        *controller.OrderController
	Reservation  *controller.ReservationController
	Banner       *controller.BannerController
	Coupon       *controller.CouponController
	Review       *controller.ReviewController
	Wishlist     *controller.WishlistController
	Cart         *controller.CartController
	Notification *controller.NotificationController
	User         *controller.UserController
	WebSocket    *controller.WebSocketController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
	healthCheck    func() error
}

// NewRouter wires the handlers. healthCheck may be nil.
func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
	healthCheck func() error,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		config:         cfg,
		healthCheck:    healthCheck,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", r.health)

	ctl := r.controllers
	auth := r.authMiddleware
	admin := auth.RequireRole(model.RoleAdmin)
	seller := auth.RequireRole(model.RoleRetailer, model.RoleAdmin)

	router.GET("/ws", auth.Authenticate(), ctl.WebSocket.Connect)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", auth.VerifyIdentity(), ctl.Auth.Register)
			authGroup.GET("/me", auth.Authenticate(), ctl.Auth.GetMe)
			authGroup.PUT("/me", auth.Authenticate(), ctl.Auth.UpdateMe)
			authGroup.POST("/logout", auth.Authenticate(), ctl.Auth.Logout)
		}

		shops := v1.Group("/shops")
		{
			shops.GET("", ctl.Shop.FindShops)
			shops.GET("/mine", auth.Authenticate(), ctl.Shop.ListMyShops)
			shops.GET("/:id", auth.OptionalAuthenticate(), ctl.Shop.GetShop)
			shops.GET("/:id/products", ctl.Product.ListShopProducts)
			shops.GET("/:id/reviews", ctl.Review.ListShopReviews)

			shops.POST("", auth.Authenticate(), ctl.Shop.SubmitShop)
			shops.PUT("/:id", auth.Authenticate(), ctl.Shop.UpdateShop)
			shops.POST("/:id/products", auth.Authenticate(), ctl.Product.CreateProduct)
			shops.POST("/:id/reviews", auth.Authenticate(), ctl.Review.CreateReview)
		}

		products := v1.Group("/products")
		{
			products.GET("/:id", ctl.Product.GetProduct)
			products.PUT("/:id", auth.Authenticate(), ctl.Product.UpdateProduct)
			products.DELETE("/:id", auth.Authenticate(), ctl.Product.DeleteProduct)
		}

		v1.GET("/banners", ctl.Banner.ListActiveBanners)

		// everything below requires a registered, active account
		authed := v1.Group("")
		authed.Use(auth.Authenticate())
		{
			authed.POST("/uploads", ctl.Upload.Upload)
			authed.POST("/uploads/presigned-url", ctl.Upload.GeneratePresignedURL)

			addresses := authed.Group("/addresses")
			{
				addresses.GET("", ctl.Address.ListAddresses)
				addresses.POST("", ctl.Address.CreateAddress)
				addresses.PUT("/:id", ctl.Address.UpdateAddress)
				addresses.DELETE("/:id", ctl.Address.DeleteAddress)
				addresses.PUT("/:id/default", ctl.Address.SetDefaultAddress)
			}

			orders := authed.Group("/orders")
			{
				orders.POST("", ctl.Order.CreateOrder)
				orders.GET("", ctl.Order.ListMyOrders)
				orders.GET("/:id", ctl.Order.GetMyOrder)
				orders.POST("/:id/cancel", ctl.Order.CancelMyOrder)
			}
			authed.POST("/payments/confirm", ctl.Order.ConfirmPayment)

			reservations := authed.Group("/reservations")
			{
				reservations.POST("", ctl.Reservation.CreateReservation)
				reservations.GET("", ctl.Reservation.ListMyReservations)
				reservations.POST("/:id/cancel", ctl.Reservation.CancelMyReservation)
			}

			sellerGroup := authed.Group("/seller", seller)
			{
				sellerGroup.GET("/orders", ctl.Order.ListSellerOrders)
				sellerGroup.PUT("/orders/:id/status", ctl.Order.UpdateOrderStatus)
				sellerGroup.GET("/reservations", ctl.Reservation.ListSellerReservations)
				sellerGroup.PUT("/reservations/:id/status", ctl.Reservation.UpdateReservationStatus)
			}

			wishlist := authed.Group("/wishlist")
			{
				wishlist.GET("", ctl.Wishlist.GetWishlist)
				wishlist.POST("", ctl.Wishlist.AddToWishlist)
				wishlist.DELETE("/:productId", ctl.Wishlist.RemoveFromWishlist)
			}

			cart := authed.Group("/cart")
			{
				cart.GET("", ctl.Cart.GetCart)
				cart.POST("", ctl.Cart.AddToCart)
				cart.DELETE("", ctl.Cart.ClearCart)
				cart.PUT("/:id", ctl.Cart.UpdateCartItem)
				cart.DELETE("/:id", ctl.Cart.RemoveFromCart)
			}

			notifications := authed.Group("/notifications")
			{
				notifications.GET("", ctl.Notification.GetNotifications)
				notifications.PUT("/read-all", ctl.Notification.MarkAllAsRead)
				notifications.PUT("/:id/read", ctl.Notification.MarkAsRead)
			}

			adminGroup := authed.Group("/admin", admin)
			{
				adminGroup.GET("/shops", ctl.Shop.ListShopsForAdmin)
				adminGroup.PUT("/shops/:id/verification", ctl.Shop.DecideVerification)
				adminGroup.PUT("/shops/:id/active", ctl.Shop.SetShopActive)

				adminGroup.GET("/banners", ctl.Banner.ListAllBanners)
				adminGroup.POST("/banners", ctl.Banner.CreateBanner)
				adminGroup.DELETE("/banners/:id", ctl.Banner.DeleteBanner)
				adminGroup.PUT("/banners/:id/move", ctl.Banner.MoveBanner)

				adminGroup.GET("/coupons", ctl.Coupon.ListCoupons)
				adminGroup.POST("/coupons", ctl.Coupon.CreateCoupon)
				adminGroup.PUT("/coupons/:id/deactivate", ctl.Coupon.DeactivateCoupon)

				adminGroup.GET("/users", ctl.User.ListUsers)
				adminGroup.PUT("/users/:id/active", ctl.User.SetUserActive)
				adminGroup.DELETE("/users/:id", ctl.User.DeleteUser)
			}
		}
	}

	return router
}

func (r *Router) health(c *gin.Context) {
	if r.healthCheck != nil {
		if err := r.healthCheck(); err != nil {
			middleware.GetLoggerFromContext(c).Error("Health check failed", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

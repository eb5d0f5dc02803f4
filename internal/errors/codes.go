package errors

// Error code constants returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these codes to localized messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized   = "AUTH_UNAUTHORIZED"    // login required
	AuthTokenMissing   = "AUTH_TOKEN_MISSING"   // no bearer token
	AuthTokenMalformed = "AUTH_TOKEN_MALFORMED" // header or token unparsable
	AuthTokenExpired   = "AUTH_TOKEN_EXPIRED"   // token expired
	AuthTokenRevoked   = "AUTH_TOKEN_REVOKED"   // token revoked
	AuthTokenInvalid   = "AUTH_TOKEN_INVALID"   // signature or claims invalid
	AuthUserNotFound   = "AUTH_USER_NOT_FOUND"  // verified identity without a user record

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden        = "AUTHZ_FORBIDDEN"
	AuthzInsufficientRole = "AUTHZ_INSUFFICIENT_ROLE"
	AuthzOwnerOnly        = "AUTHZ_OWNER_ONLY"
	AuthzAccountDisabled  = "AUTHZ_ACCOUNT_DISABLED"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Users (USER_) ====================
	UserNotFound = "USER_NOT_FOUND"

	// ==================== Shops (SHOP_) ====================
	ShopNotFound        = "SHOP_NOT_FOUND"
	ShopInvalidDecision = "SHOP_INVALID_DECISION"
	ShopInvalidLocation = "SHOP_INVALID_LOCATION"
	ShopNotAvailable    = "SHOP_NOT_AVAILABLE"

	// ==================== Products (PRODUCT_) ====================
	ProductNotFound         = "PRODUCT_NOT_FOUND"
	ProductDuplicateVariant = "PRODUCT_DUPLICATE_VARIANT"
	ProductVariantNotFound  = "PRODUCT_VARIANT_NOT_FOUND"
	ProductOutOfStock       = "PRODUCT_OUT_OF_STOCK"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderInvalidStatus     = "ORDER_INVALID_STATUS"
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION"
	OrderEmpty             = "ORDER_EMPTY"

	// ==================== Payments (PAYMENT_) ====================
	PaymentVerificationFailed = "PAYMENT_VERIFICATION_FAILED"
	PaymentGatewayUnavailable = "PAYMENT_GATEWAY_UNAVAILABLE"

	// ==================== Reservations (RESERVATION_) ====================
	ReservationNotFound          = "RESERVATION_NOT_FOUND"
	ReservationInvalidStatus     = "RESERVATION_INVALID_STATUS"
	ReservationInvalidTransition = "RESERVATION_INVALID_TRANSITION"
	ReservationInvalidPickup     = "RESERVATION_INVALID_PICKUP"

	// ==================== Addresses (ADDRESS_) ====================
	AddressNotFound = "ADDRESS_NOT_FOUND"

	// ==================== Catalog extras ====================
	BannerNotFound       = "BANNER_NOT_FOUND"
	CouponNotFound       = "COUPON_NOT_FOUND"
	CouponInvalid        = "COUPON_INVALID"
	CouponAlreadyExists  = "COUPON_ALREADY_EXISTS"
	ReviewAlreadyExists  = "REVIEW_ALREADY_EXISTS"
	ReviewInvalidRating  = "REVIEW_INVALID_RATING"
	CartItemNotFound     = "CART_ITEM_NOT_FOUND"
	NotificationNotFound = "NOTIFICATION_NOT_FOUND"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)

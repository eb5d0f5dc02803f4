package service

import (
	"errors"

	"github.com/locallens/locallens-backend/internal/app/repository"
	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"gorm.io/gorm"
)

// Sentinel errors returned by services. Controllers render them with errors.Respond.
var (
	ErrTokenMissing   = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenMissing, "Authentication token is missing")
	ErrTokenMalformed = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenMalformed, "Authentication token is malformed")
	ErrTokenExpired   = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenExpired, "Authentication token has expired")
	ErrTokenRevoked   = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenRevoked, "Authentication token has been revoked")
	ErrTokenInvalid   = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenInvalid, "Authentication token is invalid")
	ErrUnknownUser    = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthUserNotFound, "No account is registered for this identity")

	ErrInsufficientRole = apperrors.New(apperrors.KindForbidden, apperrors.AuthzInsufficientRole, "You do not have permission to perform this action")
	ErrNotOwner         = apperrors.New(apperrors.KindForbidden, apperrors.AuthzOwnerOnly, "Only the owner can perform this action")
	ErrAccountDisabled  = apperrors.New(apperrors.KindForbidden, apperrors.AuthzAccountDisabled, "This account has been deactivated")

	ErrUserNotFound      = apperrors.New(apperrors.KindNotFound, apperrors.UserNotFound, "User not found")
	ErrSelfModeration    = apperrors.New(apperrors.KindConflict, apperrors.ResourceConflict, "Admins cannot deactivate or delete their own account")
	ErrInvalidRoleFilter = apperrors.New(apperrors.KindInvalidArgument, apperrors.ValidationInvalidInput, "Unknown role filter")

	ErrShopNotFound       = apperrors.New(apperrors.KindNotFound, apperrors.ShopNotFound, "Shop not found")
	ErrInvalidDecision    = apperrors.New(apperrors.KindInvalidArgument, apperrors.ShopInvalidDecision, "Decision must be verified or rejected")
	ErrInvalidLocation    = apperrors.New(apperrors.KindInvalidArgument, apperrors.ShopInvalidLocation, "Shop location is out of range")
	ErrShopNotAvailable   = apperrors.New(apperrors.KindConflict, apperrors.ShopNotAvailable, "Shop is not accepting orders")
	ErrShopNameRequired   = apperrors.New(apperrors.KindInvalidArgument, apperrors.ValidationRequired, "Shop name is required")
	ErrInvalidSearchInput = apperrors.New(apperrors.KindInvalidArgument, apperrors.ValidationInvalidRange, "Search center or radius is out of range")

	ErrProductNotFound    = apperrors.New(apperrors.KindNotFound, apperrors.ProductNotFound, "Product not found")
	ErrDuplicateVariant   = apperrors.New(apperrors.KindConflict, apperrors.ProductDuplicateVariant, "Variant attributes must be unique per product")
	ErrVariantNotFound    = apperrors.New(apperrors.KindNotFound, apperrors.ProductVariantNotFound, "Product variant not found")
	ErrVariantRequired    = apperrors.New(apperrors.KindInvalidArgument, apperrors.ProductVariantNotFound, "A variant must be selected for this product")
	ErrOutOfStock         = apperrors.New(apperrors.KindConflict, apperrors.ProductOutOfStock, "Not enough stock for the requested quantity")
	ErrProductUnavailable = apperrors.New(apperrors.KindConflict, apperrors.ProductOutOfStock, "Product is not available")
	ErrInvalidProduct     = apperrors.New(apperrors.KindInvalidArgument, apperrors.ValidationInvalidInput, "Product name and a non-negative price are required")

	ErrOrderNotFound          = apperrors.New(apperrors.KindNotFound, apperrors.OrderNotFound, "Order not found")
	ErrInvalidOrderStatus     = apperrors.New(apperrors.KindInvalidArgument, apperrors.OrderInvalidStatus, "Unknown order status")
	ErrIllegalOrderTransition = apperrors.New(apperrors.KindConflict, apperrors.OrderInvalidTransition, "Order cannot move to the requested status")
	ErrEmptyOrder             = apperrors.New(apperrors.KindInvalidArgument, apperrors.OrderEmpty, "Order has no items")
	ErrInvalidPaymentMethod   = apperrors.New(apperrors.KindInvalidArgument, apperrors.ValidationInvalidInput, "Unknown payment method")
	ErrPaymentVerification    = apperrors.New(apperrors.KindPaymentVerificationFailed, apperrors.PaymentVerificationFailed, "Payment signature verification failed")
	ErrPaymentGatewayDown     = apperrors.New(apperrors.KindUnavailable, apperrors.PaymentGatewayUnavailable, "Payment gateway is unavailable")
	ErrInvalidQuantity        = apperrors.New(apperrors.KindInvalidArgument, apperrors.ValidationInvalidRange, "Quantity must be at least 1")

	ErrReservationNotFound          = apperrors.New(apperrors.KindNotFound, apperrors.ReservationNotFound, "Reservation not found")
	ErrInvalidReservationStatus     = apperrors.New(apperrors.KindInvalidArgument, apperrors.ReservationInvalidStatus, "Unknown reservation status")
	ErrIllegalReservationTransition = apperrors.New(apperrors.KindConflict, apperrors.ReservationInvalidTransition, "Reservation cannot move to the requested status")
	ErrInvalidPickup                = apperrors.New(apperrors.KindInvalidArgument, apperrors.ReservationInvalidPickup, "Pickup date and time slot are required")

	ErrAddressNotFound      = apperrors.New(apperrors.KindNotFound, apperrors.AddressNotFound, "Address not found")
	ErrBannerNotFound       = apperrors.New(apperrors.KindNotFound, apperrors.BannerNotFound, "Banner not found")
	ErrCouponNotFound       = apperrors.New(apperrors.KindNotFound, apperrors.CouponNotFound, "Coupon not found")
	ErrCouponInvalid        = apperrors.New(apperrors.KindInvalidArgument, apperrors.CouponInvalid, "Coupon is not valid for this order")
	ErrCouponExists         = apperrors.New(apperrors.KindConflict, apperrors.CouponAlreadyExists, "A coupon with this code already exists")
	ErrReviewExists         = apperrors.New(apperrors.KindConflict, apperrors.ReviewAlreadyExists, "You have already reviewed this shop")
	ErrInvalidRating        = apperrors.New(apperrors.KindInvalidArgument, apperrors.ReviewInvalidRating, "Rating must be between 1 and 5")
	ErrCartItemNotFound     = apperrors.New(apperrors.KindNotFound, apperrors.CartItemNotFound, "Cart item not found")
	ErrNotificationNotFound = apperrors.New(apperrors.KindNotFound, apperrors.NotificationNotFound, "Notification not found")
)

// storeError classifies a repository failure. Record-not-found becomes notFound; anything else
// is an Unavailable store failure.
func storeError(err error, notFound *apperrors.AppError) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	switch {
	case errors.Is(err, repository.ErrInsufficientStock):
		return apperrors.Wrap(ErrOutOfStock, err)
	case errors.Is(err, repository.ErrCouponUnavailable):
		return apperrors.Wrap(ErrCouponInvalid, err)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.Unavailable("The data store is temporarily unavailable", err)
}

package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrorInfo is a code plus a caller-safe message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns a raw store error into a caller-safe code and message.
// Sensitive details (constraint names, SQL) are dropped.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(lower, "duplicate key"),
		strings.Contains(lower, "unique constraint"):
		return parseDuplicateKeyError(lower)
	case strings.Contains(lower, "foreign key constraint"):
		return ErrorInfo{Code: ResourceConflict, Message: "The record is referenced by other data"}
	case strings.Contains(lower, "violates not-null constraint"), strings.Contains(lower, "not null constraint"):
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "timeout"):
		return ErrorInfo{Code: InternalExternalAPI, Message: "A dependent service is unavailable. Please try again later"}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(lower string) ErrorInfo {
	switch {
	case strings.Contains(lower, "order_number"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Order number collision. Please retry"}
	case strings.Contains(lower, "email"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Email is already registered"}
	case strings.Contains(lower, "attribute_key"):
		return ErrorInfo{Code: ProductDuplicateVariant, Message: "A variant with the same attributes already exists"}
	case strings.Contains(lower, "reviews"):
		return ErrorInfo{Code: ReviewAlreadyExists, Message: "You have already reviewed this shop"}
	case strings.Contains(lower, "coupons"):
		return ErrorInfo{Code: CouponAlreadyExists, Message: "Coupon code already exists"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "The record already exists"}
}

// ParseBindingError converts gin/validator binding failures into per-field messages.
// Returns nil when err is not a validation error.
func ParseBindingError(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := toSnakeCase(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[field] = "is required"
		case "oneof":
			fields[field] = fmt.Sprintf("must be one of [%s]", fe.Param())
		case "min", "gte":
			fields[field] = fmt.Sprintf("must be at least %s", fe.Param())
		case "max", "lte":
			fields[field] = fmt.Sprintf("must be at most %s", fe.Param())
		case "email":
			fields[field] = "must be a valid email"
		case "url":
			fields[field] = "must be a valid URL"
		default:
			fields[field] = "is invalid"
		}
	}
	return fields
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func notFoundMessage(context string) string {
	lower := strings.ToLower(context)
	for _, entity := range []string{"shop", "user", "order", "reservation", "address", "product", "banner", "coupon", "notification"} {
		if strings.Contains(lower, entity) {
			return strings.ToUpper(entity[:1]) + entity[1:] + " not found"
		}
	}
	return "The requested record was not found"
}

func defaultMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "create"):
		return "Failed to create the record. Please try again later"
	case strings.Contains(lower, "update"):
		return "Failed to update the record. Please try again later"
	case strings.Contains(lower, "delete"):
		return "Failed to delete the record. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond parses err and writes it with the given status
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{Error: info.Code, Kind: kindForStatus(statusCode), Message: info.Message})
}

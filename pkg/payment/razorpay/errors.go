package razorpay

import "errors"

var (
	// ErrInvalidConfig is returned when credentials or base url are missing
	ErrInvalidConfig = errors.New("invalid razorpay configuration")

	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnauthorized is returned when the key pair is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid API key")

	// ErrGatewayFailure is returned for any other non-success response
	ErrGatewayFailure = errors.New("payment gateway failure")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrSignatureMismatch is returned when a checkout signature does not verify
	ErrSignatureMismatch = errors.New("payment signature mismatch")
)

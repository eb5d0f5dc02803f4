package repository

import "errors"

var (
	// ErrInsufficientStock is returned when a conditional stock decrement matches no row
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStaleState is returned when a compare-and-swap status update finds the row in another state
	ErrStaleState = errors.New("record state changed concurrently")
	// ErrCouponUnavailable is returned when a coupon cannot be redeemed inside an order transaction
	ErrCouponUnavailable = errors.New("coupon unavailable")
)

// StockDelta is a quantity change applied to a product or one of its variants
type StockDelta struct {
	ProductID uint
	VariantID *uint
	Quantity  int
}

// Page normalizes 1-indexed pagination input
type Page struct {
	Page  int
	Limit int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Normalize clamps page and limit into usable values
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

// Offset returns the row offset of the page
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

package util

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	OrderNumberPrefix       = "LL"
	ReservationNumberPrefix = "RS"
)

// GenerateReferenceNumber returns "<prefix>-YYYYMMDD-NNNNN" with a five digit random suffix.
// Uniqueness is enforced by the caller against the store.
func GenerateReferenceNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, now.UTC().Format("20060102"), 10000+rand.IntN(90000))
}

// GenerateOrderNumber returns a human-readable order number such as LL-20240315-48213
func GenerateOrderNumber(now time.Time) string {
	return GenerateReferenceNumber(OrderNumberPrefix, now)
}

// GenerateReservationNumber returns a reservation number such as RS-20240315-07731
func GenerateReservationNumber(now time.Time) string {
	return GenerateReferenceNumber(ReservationNumberPrefix, now)
}

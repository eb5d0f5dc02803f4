package service

import (
	"time"

	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/pkg/logger"
)

const maxNumberAttempts = 5

// uniqueNumber draws reference numbers until one is unused
func uniqueNumber(now time.Time, generate func(time.Time) string, exists func(string) (bool, error)) (string, error) {
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number := generate(now)
		taken, err := exists(number)
		if err != nil {
			return "", storeError(err, nil)
		}
		if !taken {
			return number, nil
		}
		logger.Warn("Reference number collision, retrying", map[string]interface{}{
			"number":  number,
			"attempt": attempt,
		})
	}
	return "", apperrors.New(apperrors.KindUnavailable, apperrors.InternalServerError, "Could not allocate a reference number")
}

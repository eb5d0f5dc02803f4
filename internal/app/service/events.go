package service

import (
	"context"

	"github.com/locallens/locallens-backend/internal/events"
	"github.com/locallens/locallens-backend/pkg/logger"
)

// publishEvent emits a domain event. A broker failure never fails the calling operation.
func publishEvent(ctx context.Context, publisher events.Publisher, routingKey string, payload interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, routingKey, payload); err != nil {
		logger.Warn("Failed to publish event", map[string]interface{}{
			"routing_key": routingKey,
			"error":       err.Error(),
		})
	}
}

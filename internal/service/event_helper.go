package service

import (
	"context"

	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/pkg/events"
)

// publishEvent is best-effort: a broken bus never fails the request.
func publishEvent(ctx context.Context, publisher events.Publisher, log logger.ILogger, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

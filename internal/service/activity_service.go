package service

import (
	"context"

	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/pkg/events"
)

const activityConsumerName = "activity-log-worker"

// ActivityService records every domain event in the activity log.
type ActivityService struct {
	subscriber events.Subscriber
	activity   logger.ILogger
	logger     logger.ILogger
}

func NewActivityService(sub events.Subscriber, activity logger.ILogger, log logger.ILogger) *ActivityService {
	return &ActivityService{
		subscriber: sub,
		activity:   activity,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *ActivityService) Start() error {
	if err := s.subscriber.Subscribe(events.AllSubjects, activityConsumerName, s.handleEvent); err != nil {
		s.logger.Error("ActivityService", "Failed to start activity subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("ActivityService", "Activity service started, listening to "+events.AllSubjects, nil)
	return nil
}

func (s *ActivityService) handleEvent(ctx context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+2)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["type"] = event.EventType()
	details["occurred_at"] = event.Timestamp()

	s.activity.Info("ACTIVITY", event.EventType(), details)
	return nil
}

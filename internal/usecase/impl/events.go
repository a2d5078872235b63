package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "authgate/internal/delivery/context"
	"authgate/internal/domain/entity"
	"authgate/internal/domain/service"
)

// publishAuthEvent emits event after the transition it describes has been
// persisted. user may be nil when the subject is unknown. Failures are logged
// and never surface to the caller.
func publishAuthEvent(ctx context.Context, publisher service.EventPublisher, logger *slog.Logger, eventType entity.AuthEventType, user *entity.User, now time.Time) {
	if publisher == nil {
		return
	}

	event := &entity.AuthEvent{
		Type:       eventType,
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		OccurredAt: now,
	}
	if user != nil {
		event.UserID = user.ID
		event.Email = user.Email
	}

	if err := publisher.PublishAuthEvent(ctx, event); err != nil {
		logger.Warn("Failed to publish auth event",
			slog.String("event_type", eventType.String()),
			slog.Any("user_id", event.UserID),
			slog.Any("error", err),
		)
	}
}

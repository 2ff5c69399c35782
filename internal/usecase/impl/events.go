package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "ledger/internal/delivery/context"
	"ledger/internal/domain/entity"
	"ledger/internal/domain/service"

	"github.com/google/uuid"
)

// eventEmitter publishes identity events after the change has been committed.
// Failures are logged and swallowed: the caller's change is already durable.
type eventEmitter struct {
	publisher service.EventPublisher
	logger    *slog.Logger
}

func (e eventEmitter) emit(ctx context.Context, eventType service.IdentityEventType, identity *entity.Identity, now time.Time) {
	if e.publisher == nil {
		return
	}

	event := &service.IdentityEvent{
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		EventID:    uuid.NewString(),
		Type:       eventType,
		IdentityID: identity.ID,
		Email:      identity.Email,
		AuthSource: identity.AuthSource.String(),
		Role:       identity.Role.String(),
		Active:     identity.Active,
		OccurredAt: now.UTC(),
	}

	if err := e.publisher.PublishIdentityEvent(ctx, event); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, e.logger).Warn("Failed to publish identity event",
			slog.String("event_type", string(eventType)),
			slog.Int64("identity_id", identity.ID),
			slog.Any("error", err),
		)
	}
}

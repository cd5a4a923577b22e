package events

import (
	"context"

	"fleetrent-backend/internal/logger"
)

// LogObserver writes every event to the structured log.
func LogObserver(ctx context.Context, e Event) error {
	args := []any{"event", e.Name, "occurred_at", e.OccurredAt}
	for k, v := range e.Payload {
		args = append(args, k, v)
	}
	logger.InfoContext(ctx, "Lifecycle event", args...)
	return nil
}

package activity

import (
	"context"

	"go.uber.org/zap"
)

// LogHook writes every event to a zap logger.
type LogHook struct {
	Logger *zap.Logger
}

// Notify satisfies Hook.
func (h LogHook) Notify(_ context.Context, evt Event) error {
	if h.Logger == nil {
		return nil
	}
	h.Logger.Info("activity",
		zap.String("verb", evt.Verb),
		zap.String("object_type", evt.ObjectType),
		zap.String("object_id", evt.ObjectID),
		zap.String("actor_id", evt.ActorID),
		zap.String("channel", evt.Channel),
		zap.Time("occurred_at", evt.OccurredAt),
		zap.Any("metadata", evt.Metadata),
	)
	return nil
}

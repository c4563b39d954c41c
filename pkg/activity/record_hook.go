package activity

import (
	"context"
	"strconv"

	"github.com/goliatone/go-appinsights/components/dashboard"
)

var objectTypes = map[string]string{
	dashboard.CollectionApps:     "app",
	dashboard.CollectionUsers:    "user",
	dashboard.CollectionLogs:     "log",
	dashboard.CollectionComments: "comment",
}

// RecordHook turns dashboard record events into activity events.
type RecordHook struct {
	Emitter *Emitter
}

var _ dashboard.RefreshHook = RecordHook{}

// RecordChanged satisfies dashboard.RefreshHook.
func (h RecordHook) RecordChanged(ctx context.Context, event dashboard.RecordEvent) error {
	if !h.Emitter.Enabled() {
		return nil
	}
	return h.Emitter.Emit(ctx, FromRecordEvent(ctx, event))
}

// FromRecordEvent maps a record event onto an activity event. The user id is
// read from the actor stored on ctx.
func FromRecordEvent(ctx context.Context, event dashboard.RecordEvent) Event {
	objectType, ok := objectTypes[event.Collection]
	if !ok {
		objectType = event.Collection
	}
	actor := dashboard.ActorFromContext(ctx)
	actorID := event.ActorID
	if actorID == "" {
		actorID = actor.ID()
	}
	meta := map[string]any{
		"event_id":   event.ID,
		"collection": event.Collection,
	}
	if event.Reason == dashboard.ReasonSalesStatus {
		meta["sales_status"] = event.Record.String("SalesStatus")
	}
	return Event{
		Verb:           event.Reason,
		ActorID:        actorID,
		UserID:         actor.UserID,
		ObjectType:     objectType,
		ObjectID:       strconv.Itoa(event.RecordID),
		DefinitionCode: objectType + ":" + event.Reason,
		Metadata:       meta,
		OccurredAt:     event.OccurredAt,
	}
}

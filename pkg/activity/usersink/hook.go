// Package usersink stores activity events through a go-users activity sink.
package usersink

import (
	"context"
	"maps"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-appinsights/pkg/activity"
)

// Sink persists go-users activity records.
type Sink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook forwards activity events to a go-users sink.
type Hook struct {
	Sink Sink
}

var _ activity.Hook = Hook{}

// Notify satisfies activity.Hook. Identifiers that are not UUIDs are kept in
// the record data instead of the typed columns.
func (h Hook) Notify(ctx context.Context, evt activity.Event) error {
	if h.Sink == nil || evt.Verb == "" {
		return nil
	}
	data := maps.Clone(evt.Metadata)
	if data == nil {
		data = map[string]any{}
	}
	if evt.DefinitionCode != "" {
		data["definition_code"] = evt.DefinitionCode
	}
	if len(evt.Recipients) > 0 {
		data["recipients"] = append([]string(nil), evt.Recipients...)
	}
	record := types.ActivityRecord{
		Verb:       evt.Verb,
		ObjectType: evt.ObjectType,
		ObjectID:   evt.ObjectID,
		Channel:    evt.Channel,
		OccurredAt: evt.OccurredAt,
		Data:       data,
	}
	record.ActorID = parseID(evt.ActorID, "actor_ref", data)
	record.UserID = parseID(evt.UserID, "user_ref", data)
	return h.Sink.Log(ctx, record)
}

func parseID(raw, key string, data map[string]any) uuid.UUID {
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		data[key] = raw
		return uuid.Nil
	}
	return id
}

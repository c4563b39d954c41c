package activity

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"
)

// Event is one audit entry for a change made through the dashboard.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Hook receives normalized activity events.
type Hook interface {
	Notify(ctx context.Context, evt Event) error
}

// HookFunc adapts a function into a Hook.
type HookFunc func(ctx context.Context, evt Event) error

// Notify calls f.
func (f HookFunc) Notify(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Hooks fans an event out to several hooks.
type Hooks []Hook

// Notify normalizes evt and forwards it to every hook. Events without a verb
// or object type are dropped.
func (h Hooks) Notify(ctx context.Context, evt Event) error {
	evt = NormalizeEvent(evt)
	if evt.Verb == "" || evt.ObjectType == "" {
		return nil
	}
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims identifiers, copies the mutable fields and stamps
// OccurredAt when it is missing.
func NormalizeEvent(evt Event) Event {
	evt.Verb = strings.TrimSpace(evt.Verb)
	evt.ActorID = strings.TrimSpace(evt.ActorID)
	evt.UserID = strings.TrimSpace(evt.UserID)
	evt.ObjectType = strings.TrimSpace(evt.ObjectType)
	evt.ObjectID = strings.TrimSpace(evt.ObjectID)
	evt.Channel = strings.TrimSpace(evt.Channel)
	evt.DefinitionCode = strings.TrimSpace(evt.DefinitionCode)
	if evt.Metadata != nil {
		evt.Metadata = maps.Clone(evt.Metadata)
	}
	if evt.Recipients != nil {
		evt.Recipients = slices.Clone(evt.Recipients)
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	return evt
}

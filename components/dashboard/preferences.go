package dashboard

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// LayoutOverrides captures per-viewer dashboard preferences.
type LayoutOverrides struct {
	Locale        string          `json:"locale,omitempty"`
	Theme         string          `json:"theme,omitempty"`
	WidgetOrder   []string        `json:"widget_order,omitempty"`
	HiddenWidgets map[string]bool `json:"hidden_widgets,omitempty"`
}

// PreferenceStore persists LayoutOverrides per viewer.
type PreferenceStore interface {
	LayoutOverrides(ctx context.Context, viewer ViewerContext) (LayoutOverrides, error)
	SaveLayoutOverrides(ctx context.Context, viewer ViewerContext, overrides LayoutOverrides) error
}

// InMemoryPreferenceStore provides a concurrency-safe default store.
type InMemoryPreferenceStore struct {
	mu   sync.RWMutex
	data map[string]LayoutOverrides
}

// NewInMemoryPreferenceStore creates an empty preference store.
func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		data: make(map[string]LayoutOverrides),
	}
}

// LayoutOverrides returns stored overrides or defaults.
func (s *InMemoryPreferenceStore) LayoutOverrides(_ context.Context, viewer ViewerContext) (LayoutOverrides, error) {
	if viewer.UserID != "" {
		s.mu.RLock()
		overrides, ok := s.data[viewer.UserID]
		s.mu.RUnlock()
		if ok {
			out := overrides.clone()
			if out.Locale == "" {
				out.Locale = viewer.Locale
			}
			return out, nil
		}
	}
	return LayoutOverrides{
		Locale:        viewer.Locale,
		HiddenWidgets: map[string]bool{},
	}, nil
}

// SaveLayoutOverrides persists overrides for a viewer.
func (s *InMemoryPreferenceStore) SaveLayoutOverrides(_ context.Context, viewer ViewerContext, overrides LayoutOverrides) error {
	if viewer.UserID == "" {
		return fmt.Errorf("preference store requires viewer user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[viewer.UserID] = overrides.clone()
	return nil
}

func (o LayoutOverrides) clone() LayoutOverrides {
	out := o
	out.WidgetOrder = slices.Clone(o.WidgetOrder)
	out.HiddenWidgets = make(map[string]bool, len(o.HiddenWidgets))
	for code, hidden := range o.HiddenWidgets {
		if hidden {
			out.HiddenWidgets[code] = true
		}
	}
	return out
}

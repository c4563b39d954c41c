package dashboard

import (
	"context"
	"errors"
)

// RefreshHookFunc adapts a function into a RefreshHook.
type RefreshHookFunc func(ctx context.Context, event RecordEvent) error

// RecordChanged calls f.
func (f RefreshHookFunc) RecordChanged(ctx context.Context, event RecordEvent) error {
	return f(ctx, event)
}

// MultiRefreshHook forwards every event to each hook in order. All hooks run
// even when one fails; the failures are joined.
type MultiRefreshHook []RefreshHook

// RecordChanged satisfies RefreshHook.
func (m MultiRefreshHook) RecordChanged(ctx context.Context, event RecordEvent) error {
	var errs []error
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.RecordChanged(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package dashboard

import (
	"context"
	"sync"

	"github.com/goliatone/go-appinsights/components/tabular"
)

// FetchFunc loads the records behind a live view.
type FetchFunc func(ctx context.Context) ([]tabular.Record, error)

// Snapshot is the display state of a live view.
type Snapshot struct {
	Records    []tabular.Record
	Err        error
	Loading    bool
	// Generation is the token of the fetch whose outcome is shown.
	Generation uint64
}

// ErrorMessage returns the text shown in place of the records, if any.
func (s Snapshot) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// LiveView keeps the latest result of a fetch. Every Refresh takes a new
// generation token and a completed fetch is applied only while its token is
// still the latest, so a slow earlier fetch never overwrites a newer one.
type LiveView struct {
	mu    sync.Mutex
	fetch FetchFunc
	gen   uint64
	snap  Snapshot
}

// NewLiveView wraps fetch.
func NewLiveView(fetch FetchFunc) *LiveView {
	return &LiveView{fetch: fetch}
}

// Refresh runs the fetch and returns the snapshot after applying its result.
func (v *LiveView) Refresh(ctx context.Context) Snapshot {
	token := v.begin()
	var (
		records []tabular.Record
		err     error
	)
	if v.fetch != nil {
		records, err = v.fetch(ctx)
	}
	v.apply(token, records, err)
	return v.Snapshot()
}

// Retry re-invokes the fetch after a failure.
func (v *LiveView) Retry(ctx context.Context) Snapshot {
	return v.Refresh(ctx)
}

// Snapshot returns the current state.
func (v *LiveView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := v.snap
	snap.Records = tabular.CloneAll(v.snap.Records)
	return snap
}

func (v *LiveView) begin() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.snap.Loading = true
	return v.gen
}

func (v *LiveView) apply(token uint64, records []tabular.Record, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if token != v.gen {
		return false
	}
	v.snap.Loading = false
	v.snap.Generation = token
	v.snap.Err = err
	if err == nil {
		v.snap.Records = records
	}
	return true
}

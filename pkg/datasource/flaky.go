package datasource

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/tabular"
)

// ErrSimulatedOutage is returned by a Flaky repository when it drops a call.
var ErrSimulatedOutage = errors.New("service temporarily unavailable")

// Flaky wraps a repository and fails a share of its calls. It lets local
// demos exercise error and retry states.
type Flaky struct {
	next dashboard.Repository
	rate float64

	mu   sync.Mutex
	roll func() float64
}

var _ dashboard.Repository = (*Flaky)(nil)

// NewFlaky fails roughly rate (0..1) of the calls made to next. A rate of zero
// or less returns next unchanged.
func NewFlaky(next dashboard.Repository, rate float64) dashboard.Repository {
	if rate <= 0 || next == nil {
		return next
	}
	return &Flaky{next: next, rate: min(rate, 1), roll: rand.Float64}
}

func (f *Flaky) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roll() < f.rate {
		return ErrSimulatedOutage
	}
	return nil
}

func (f *Flaky) All(ctx context.Context) ([]tabular.Record, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.next.All(ctx)
}

func (f *Flaky) Get(ctx context.Context, id int) (tabular.Record, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.next.Get(ctx, id)
}

func (f *Flaky) Create(ctx context.Context, record tabular.Record) (tabular.Record, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.next.Create(ctx, record)
}

func (f *Flaky) Update(ctx context.Context, id int, patch tabular.Record) (tabular.Record, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.next.Update(ctx, id, patch)
}

func (f *Flaky) Delete(ctx context.Context, id int) (tabular.Record, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.next.Delete(ctx, id)
}

// WithFailures wraps every repository in a Flaky.
func (r Repositories) WithFailures(rate float64) Repositories {
	return Repositories{
		Apps:     NewFlaky(r.Apps, rate),
		Users:    NewFlaky(r.Users, rate),
		Logs:     NewFlaky(r.Logs, rate),
		Comments: NewFlaky(r.Comments, rate),
	}
}

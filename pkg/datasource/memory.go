package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/tabular"
)

// Latency is the simulated delay of each repository operation.
type Latency struct {
	All    time.Duration `yaml:"all" env:"ALL" envDefault:"350ms"`
	Get    time.Duration `yaml:"get" env:"GET" envDefault:"200ms"`
	Create time.Duration `yaml:"create" env:"CREATE" envDefault:"450ms"`
	Update time.Duration `yaml:"update" env:"UPDATE" envDefault:"300ms"`
	Delete time.Duration `yaml:"delete" env:"DELETE" envDefault:"300ms"`
}

// MemoryStore is an in-memory dashboard.Repository for one collection.
type MemoryStore struct {
	mu      sync.RWMutex
	entity  string
	records []tabular.Record
	latency Latency
}

var _ dashboard.Repository = (*MemoryStore)(nil)

// NewMemoryStore copies records into a new store. entity names the records
// in not-found errors.
func NewMemoryStore(entity string, records []tabular.Record, latency Latency) *MemoryStore {
	return &MemoryStore{
		entity:  entity,
		records: tabular.CloneAll(records),
		latency: latency,
	}
}

// All returns a copy of every record.
func (s *MemoryStore) All(ctx context.Context) ([]tabular.Record, error) {
	if err := wait(ctx, s.latency.All); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tabular.CloneAll(s.records), nil
}

// Get returns the record with id.
func (s *MemoryStore) Get(ctx context.Context, id int) (tabular.Record, error) {
	if err := wait(ctx, s.latency.Get); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return nil, s.notFound(id)
	}
	return s.records[i].Clone(), nil
}

// Create stores record under the next free id.
func (s *MemoryStore) Create(ctx context.Context, record tabular.Record) (tabular.Record, error) {
	if err := wait(ctx, s.latency.Create); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := record.Clone()
	if rec == nil {
		rec = tabular.Record{}
	}
	rec[tabular.IDField] = s.nextID()
	s.records = append(s.records, rec)
	return rec.Clone(), nil
}

// Update merges patch into the record with id. The id itself never changes.
func (s *MemoryStore) Update(ctx context.Context, id int, patch tabular.Record) (tabular.Record, error) {
	if err := wait(ctx, s.latency.Update); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, s.notFound(id)
	}
	rec := s.records[i].Clone()
	for k, v := range patch {
		if k == tabular.IDField {
			continue
		}
		rec[k] = v
	}
	s.records[i] = rec
	return rec.Clone(), nil
}

// Delete removes the record with id and returns it.
func (s *MemoryStore) Delete(ctx context.Context, id int) (tabular.Record, error) {
	if err := wait(ctx, s.latency.Delete); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, s.notFound(id)
	}
	removed := s.records[i]
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	return removed, nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) index(id int) int {
	for i, rec := range s.records {
		if got, ok := rec.ID(); ok && got == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) nextID() int {
	highest := 0
	for _, rec := range s.records {
		if id, ok := rec.ID(); ok && id > highest {
			highest = id
		}
	}
	return highest + 1
}

func (s *MemoryStore) notFound(id int) error {
	return &dashboard.NotFoundError{Entity: s.entity, ID: id}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

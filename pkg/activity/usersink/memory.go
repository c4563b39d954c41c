package usersink

import (
	"context"
	"sync"

	"github.com/goliatone/go-users/pkg/types"
)

// DefaultCapacity bounds a MemorySink created with a non-positive capacity.
const DefaultCapacity = 500

// MemorySink keeps the most recent activity records in memory.
type MemorySink struct {
	mu       sync.RWMutex
	capacity int
	records  []types.ActivityRecord
}

var _ Sink = (*MemorySink)(nil)

// NewMemorySink returns a sink holding at most capacity records.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemorySink{capacity: capacity}
}

// Log stores record, evicting the oldest entry when full.
func (s *MemorySink) Log(ctx context.Context, record types.ActivityRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == s.capacity {
		s.records = append(s.records[:0], s.records[1:]...)
	}
	s.records = append(s.records, record)
	return nil
}

// Recent returns up to limit records, newest first. A non-positive limit
// returns all of them.
func (s *MemorySink) Recent(limit int) []types.ActivityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]types.ActivityRecord, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.records[i])
	}
	return out
}

// Package telemetry provides sinks for the insights Telemetry interface.
package telemetry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Sink matches dashboard.Telemetry and commands.Telemetry.
type Sink interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// Multi forwards each event to every sink.
type Multi []Sink

// Record satisfies Sink.
func (m Multi) Record(ctx context.Context, event string, payload map[string]any) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, event, payload)
		}
	}
}

// Logger writes events as structured zap entries at debug level.
type Logger struct {
	log *zap.Logger
}

// NewLogger wraps a zap logger. A nil logger yields a no-op sink.
func NewLogger(log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{log: log.Named("telemetry")}
}

// Record satisfies Sink.
func (l *Logger) Record(_ context.Context, event string, payload map[string]any) {
	if ce := l.log.Check(zap.DebugLevel, event); ce != nil {
		ce.Write(fields(payload)...)
	}
}

func fields(payload map[string]any) []zap.Field {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, payload[k]))
	}
	return out
}

// Counter counts events in a Prometheus CounterVec labelled by event and
// collection.
type Counter struct {
	events *prometheus.CounterVec
}

// Namespace prefixes every metric registered by this package.
const Namespace = "appinsights"

var (
	registerOnce sync.Once
	shared       *Counter
)

// NewCounter creates a counter and registers it on reg.
func NewCounter(reg prometheus.Registerer) (*Counter, error) {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_total",
			Help:      "Total number of insights telemetry events",
		},
		[]string{"event", "collection"},
	)
	if reg != nil {
		if err := reg.Register(events); err != nil {
			return nil, fmt.Errorf("telemetry: register counter: %w", err)
		}
	}
	return &Counter{events: events}, nil
}

// DefaultCounter returns a counter registered once on the default registry.
func DefaultCounter() *Counter {
	registerOnce.Do(func() {
		c, err := NewCounter(prometheus.DefaultRegisterer)
		if err != nil {
			c, _ = NewCounter(nil)
		}
		shared = c
	})
	return shared
}

// Record satisfies Sink.
func (c *Counter) Record(_ context.Context, event string, payload map[string]any) {
	collection, _ := payload["collection"].(string)
	c.events.WithLabelValues(event, strings.ToLower(collection)).Inc()
}

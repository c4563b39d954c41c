package dashboard

import (
	"context"
	"time"

	"github.com/goliatone/go-appinsights/components/tabular"
)

// Collection names understood by the service and its transports.
const (
	CollectionApps     = "apps"
	CollectionUsers    = "users"
	CollectionLogs     = "logs"
	CollectionComments = "comments"
)

// Repository is the data source behind one collection. Implementations are
// safe for concurrent use, return copies of their records and report absent
// ids with an error matching ErrNotFound.
type Repository interface {
	All(ctx context.Context) ([]tabular.Record, error)
	Get(ctx context.Context, id int) (tabular.Record, error)
	Create(ctx context.Context, record tabular.Record) (tabular.Record, error)
	Update(ctx context.Context, id int, patch tabular.Record) (tabular.Record, error)
	Delete(ctx context.Context, id int) (tabular.Record, error)
}

// ProviderRegistry stores widget definitions and the providers that fill them.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(code string, provider Provider) error
	Definition(code string) (WidgetDefinition, bool)
	Provider(code string) (Provider, bool)
	Definitions() []WidgetDefinition
}

// RefreshHook notifies transports (REST/WebSocket) about record changes.
type RefreshHook interface {
	RecordChanged(ctx context.Context, event RecordEvent) error
}

// ViewerContext captures the active user/locale information needed to render dashboards.
type ViewerContext struct {
	UserID string
	Roles  []string
	Locale string
	// Theme is the UI variant ("light" or "dark") charts should match.
	Theme string
}

// ListRequest selects a collection and the view to compute over it.
type ListRequest struct {
	Collection string        `json:"collection"`
	Query      tabular.Query `json:"query"`
}

// RecordEvent describes a mutation that transports might care about.
type RecordEvent struct {
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	RecordID   int            `json:"record_id"`
	Reason     string         `json:"reason"`
	ActorID    string         `json:"actor_id,omitempty"`
	Record     tabular.Record `json:"record,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Event reasons.
const (
	ReasonCreate      = "create"
	ReasonUpdate      = "update"
	ReasonDelete      = "delete"
	ReasonSalesStatus = "sales_status"
)

// WidgetDefinition describes a dashboard widget.
type WidgetDefinition struct {
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Position    int    `json:"position,omitempty" yaml:"position,omitempty"`
	// Configuration is passed to the provider on every fetch.
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty"`

	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
}

// Widget is a resolved dashboard widget. A provider failure is reported in
// Error instead of failing the whole overview.
type Widget struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Data        WidgetData `json:"data,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Overview is the resolved dashboard page.
type Overview struct {
	Widgets     []Widget  `json:"widgets"`
	GeneratedAt time.Time `json:"generated_at"`
}

// FilterOption is a distinct field value offered by a filter dropdown.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

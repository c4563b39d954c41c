package dashboard

import (
	"maps"
	"strings"

	"github.com/goliatone/go-appinsights/components/tabular"
)

// CollectionSchema bundles the column descriptors and payload schema of a
// collection.
type CollectionSchema struct {
	Name     string
	Table    tabular.Schema
	Document map[string]any
}

// Entity is the display name used in error messages.
func (c CollectionSchema) Entity() string {
	if c.Table.Entity != "" {
		return c.Table.Entity
	}
	return "Record"
}

// SalesOption is one stage of the sales pipeline.
type SalesOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SalesPipeline lists the sales statuses an app can be moved to.
func SalesPipeline() []SalesOption {
	return []SalesOption{
		{Value: "no_contacted", Label: "No Contacted"},
		{Value: "demo_scheduled", Label: "Demo Scheduled"},
		{Value: "demo_completed", Label: "Demo Completed"},
		{Value: "proposal_sent", Label: "Proposal Sent"},
		{Value: "negotiating", Label: "Negotiating"},
		{Value: "contract_review", Label: "Contract Review"},
		{Value: "follow_up_required", Label: "Follow Up Required"},
		{Value: "closed_won", Label: "Closed Won"},
		{Value: "closed_lost", Label: "Closed Lost"},
	}
}

// NormalizeSalesStatus maps a pipeline value or label to its canonical value.
func NormalizeSalesStatus(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, opt := range SalesPipeline() {
		if strings.EqualFold(raw, opt.Value) || strings.EqualFold(raw, opt.Label) {
			return opt.Value, true
		}
	}
	return "", false
}

// SeverityOrder is the business priority applied to apps before any user sort.
var SeverityOrder = []string{"HIGH", "MEDIUM", "LOW"}

// DefaultSchemas returns the built-in collection schemas.
func DefaultSchemas() map[string]CollectionSchema {
	return map[string]CollectionSchema{
		CollectionApps:     appsSchema(),
		CollectionUsers:    usersSchema(),
		CollectionLogs:     logsSchema(),
		CollectionComments: commentsSchema(),
	}
}

func salesValues() []any {
	opts := SalesPipeline()
	out := make([]any, 0, len(opts))
	for _, opt := range opts {
		out = append(out, opt.Value)
	}
	return out
}

func appsSchema() CollectionSchema {
	return CollectionSchema{
		Name: CollectionApps,
		Table: tabular.Schema{
			Entity: "App",
			Fields: []tabular.Field{
				{Key: "Id", Label: "ID", Sortable: true, Filterable: true},
				{Key: "AppName", Label: "App Name", Sortable: true, Searchable: true},
				{Key: "AppCategory", Label: "Category", Sortable: true, Filterable: true, Searchable: true},
				{Key: "CanvasAppId", Label: "Canvas App"},
				{Key: "UserId", Label: "User", Sortable: true, Filterable: true},
				{Key: "AppSummary", Label: "Summary"},
				{Key: "CurrentStatus", Label: "Status", Sortable: true, Filterable: true},
				{Key: "TechnicalComplexity", Label: "Complexity", Sortable: true, Filterable: true},
				{Key: "IncidentSummary", Label: "Incident"},
				{Key: "UserWorkflowImpact", Label: "Workflow Impact", Sortable: true, Filterable: true},
				{Key: "LastChatAnalysisStatus", Label: "Chat Analysis", Sortable: true, Filterable: true},
				{Key: "SalesStatus", Label: "Sales Status", Sortable: true, Filterable: true},
				{Key: "Severity", Label: "Severity", Sortable: true, Filterable: true},
				{Key: "IsDbConnected", Label: "Database", Sortable: true, Filterable: true},
				{Key: "TotalMessages", Label: "Messages", Sortable: true},
				{Key: "CreatedAt", Label: "Created", Sortable: true, Date: true},
				{Key: "LastMessageAt", Label: "Last Message", Sortable: true, Date: true},
				{Key: "LastAIScanDate", Label: "Last AI Scan", Sortable: true, Date: true},
			},
			Priority: &tabular.Priority{Field: "Severity", Order: SeverityOrder},
		},
		Document: map[string]any{
			"type":     "object",
			"required": []any{"AppName", "AppCategory", "UserId"},
			"properties": map[string]any{
				"AppName":                map[string]any{"type": "string", "minLength": 1},
				"AppCategory":            map[string]any{"type": "string", "minLength": 1},
				"CanvasAppId":            map[string]any{"type": "string"},
				"UserId":                 map[string]any{"type": "integer", "minimum": 0},
				"AppSummary":             map[string]any{"type": "string"},
				"CurrentStatus":          map[string]any{"type": "string"},
				"TechnicalComplexity":    map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
				"IncidentSummary":        map[string]any{"type": "string"},
				"UserWorkflowImpact":     map[string]any{"enum": []any{"BLOCKED", "DEGRADED", "MINIMAL", "NONE"}},
				"LastChatAnalysisStatus": map[string]any{"type": "string"},
				"SalesStatus":            map[string]any{"enum": salesValues()},
				"Severity":               map[string]any{"enum": []any{"HIGH", "MEDIUM", "LOW"}},
				"IsDbConnected":          map[string]any{"type": "boolean"},
				"TotalMessages":          map[string]any{"type": "integer", "minimum": 0},
			},
		},
	}
}

func usersSchema() CollectionSchema {
	return CollectionSchema{
		Name: CollectionUsers,
		Table: tabular.Schema{
			Entity: "User",
			Fields: []tabular.Field{
				{Key: "Id", Label: "ID", Sortable: true, Filterable: true},
				{Key: "UserId", Label: "User ID", Filterable: true},
				{Key: "Name", Label: "Name", Sortable: true, Searchable: true},
				{Key: "Email", Label: "Email", Sortable: true, Searchable: true},
				{Key: "CompanyID", Label: "Company", Sortable: true, Filterable: true, Searchable: true},
				{Key: "Plan", Label: "Plan", Sortable: true, Filterable: true},
				{Key: "TotalApps", Label: "Apps", Sortable: true},
				{Key: "PlatformSignupDate", Label: "Platform Signup", Sortable: true, Date: true},
				{Key: "ApperSignupDate", Label: "Signup", Sortable: true, Date: true},
			},
		},
		Document: map[string]any{
			"type":     "object",
			"required": []any{"Name", "Email"},
			"properties": map[string]any{
				"UserId":             map[string]any{"type": "string"},
				"Name":               map[string]any{"type": "string", "minLength": 1},
				"Email":              map[string]any{"type": "string", "format": "email"},
				"CompanyID":          map[string]any{"type": "string"},
				"Plan":               map[string]any{"type": "string"},
				"TotalApps":          map[string]any{"type": "integer", "minimum": 0},
				"PlatformSignupDate": map[string]any{"type": "string", "format": "date-time"},
				"ApperSignupDate":    map[string]any{"type": "string", "format": "date-time"},
			},
		},
	}
}

func logsSchema() CollectionSchema {
	return CollectionSchema{
		Name: CollectionLogs,
		Table: tabular.Schema{
			Entity: "Log",
			Fields: []tabular.Field{
				{Key: "Id", Label: "ID", Sortable: true, Filterable: true},
				{Key: "AppId", Label: "App", Sortable: true, Filterable: true},
				{Key: "ChatAnalysisStatus", Label: "Status", Sortable: true, Filterable: true, Searchable: true},
				{Key: "Summary", Label: "Summary", Searchable: true},
				{Key: "SentimentScore", Label: "Sentiment", Sortable: true},
				{Key: "FrustrationLevel", Label: "Frustration", Sortable: true, Filterable: true},
				{Key: "CreatedAt", Label: "Created", Sortable: true, Date: true},
			},
		},
		Document: map[string]any{
			"type":     "object",
			"required": []any{"AppId", "ChatAnalysisStatus"},
			"properties": map[string]any{
				"AppId":              map[string]any{"type": "integer", "minimum": 0},
				"ChatAnalysisStatus": map[string]any{"type": "string", "minLength": 1},
				"Summary":            map[string]any{"type": "string"},
				"SentimentScore":     map[string]any{"type": "number", "minimum": -1, "maximum": 1},
				"FrustrationLevel":   map[string]any{"type": "integer", "minimum": 0, "maximum": 5},
			},
		},
	}
}

func commentsSchema() CollectionSchema {
	return CollectionSchema{
		Name: CollectionComments,
		Table: tabular.Schema{
			Entity: "Comment",
			Fields: []tabular.Field{
				{Key: "Id", Label: "ID", Sortable: true, Filterable: true},
				{Key: "AppId", Label: "App", Sortable: true, Filterable: true},
				{Key: "AuthorName", Label: "Author", Sortable: true, Filterable: true, Searchable: true},
				{Key: "AuthorAvatar", Label: "Avatar"},
				{Key: "Comment", Label: "Comment", Searchable: true},
				{Key: "SalesStatus", Label: "Sales Status", Sortable: true, Filterable: true},
				{Key: "CreatedAt", Label: "Created", Sortable: true, Date: true},
				{Key: "UpdatedAt", Label: "Updated", Sortable: true, Date: true},
			},
		},
		Document: map[string]any{
			"type":     "object",
			"required": []any{"AppId", "Comment"},
			"properties": map[string]any{
				"AppId":        map[string]any{"type": "integer", "minimum": 0},
				"AuthorName":   map[string]any{"type": "string"},
				"AuthorAvatar": map[string]any{"type": "string"},
				"Comment":      map[string]any{"type": "string", "minLength": 1},
				"SalesStatus":  map[string]any{"enum": salesValues()},
			},
		},
	}
}

// patchDocument relaxes a create schema for partial updates.
func patchDocument(doc map[string]any) map[string]any {
	if len(doc) == 0 {
		return doc
	}
	out := maps.Clone(doc)
	delete(out, "required")
	return out
}

package dashboard

import (
	"strings"

	"github.com/ettle/strcase"
)

// Status mapping contexts.
const (
	StatusContextChat    = "chat_analysis"
	StatusContextSales   = "sales"
	StatusContextGeneral = "general"
)

// Chat analysis categories in canonical display order.
const (
	CategoryPositive  = "positive"
	CategoryNeutral   = "neutral"
	CategoryStruggle  = "struggle"
	CategoryCritical  = "critical"
	CategoryHelp      = "help"
	CategoryTechnical = "technical"
	CategorySpecial   = "special"
	CategoryDefault   = "default"
)

// Badge is the display classification of a raw status string.
type Badge struct {
	Category string `json:"category"`
	Label    string `json:"label"`
}

// StatusCategory groups chat analysis statuses under one category.
type StatusCategory struct {
	Name     string
	Color    string
	Statuses []string
}

var chatCategories = []StatusCategory{
	{Name: CategoryPositive, Color: "#10b981", Statuses: []string{"smooth_progress", "learning_effectively", "feature_exploring", "goal_achieved", "highly_engaged"}},
	{Name: CategoryNeutral, Color: "#3b82f6", Statuses: []string{"building_actively", "iterating", "experimenting", "asking_questions"}},
	{Name: CategoryStruggle, Color: "#f59e0b", Statuses: []string{"stuck", "confused", "repeating_issues", "frustrated", "going_in_circles"}},
	{Name: CategoryCritical, Color: "#ef4444", Statuses: []string{"abandonment_risk", "completely_lost", "angry", "giving_up"}},
	{Name: CategoryHelp, Color: "#f97316", Statuses: []string{"needs_guidance", "requesting_examples", "seeking_alternatives", "documentation_needed"}},
	{Name: CategoryTechnical, Color: "#7c3aed", Statuses: []string{"debugging", "troubleshooting_db", "performance_issues", "integration_problems"}},
	{Name: CategorySpecial, Color: "#6b7280", Statuses: []string{"off_topic", "inactive", "testing_limits", "copy_pasting"}},
}

const defaultCategoryColor = "#9ca3af"

var salesBadges = map[string]string{
	"demo_scheduled":     "info",
	"demo_completed":     "primary",
	"proposal_sent":      "warning",
	"closed_won":         "success",
	"closed_lost":        "danger",
	"follow_up_required": "neutral",
}

var generalBadges = map[string]string{
	"active":       "success",
	"connected":    "success",
	"online":       "success",
	"inactive":     "danger",
	"disconnected": "danger",
	"offline":      "danger",
	"pending":      "warning",
	"processing":   "warning",
	"pro":          "primary",
	"premium":      "primary",
	"free":         "secondary",
	"basic":        "secondary",
}

// ChatCategories returns the canonical chat analysis table.
func ChatCategories() []StatusCategory {
	out := make([]StatusCategory, len(chatCategories))
	for i, c := range chatCategories {
		c.Statuses = append([]string(nil), c.Statuses...)
		out[i] = c
	}
	return out
}

// CategoryColor returns the chart color of a category.
func CategoryColor(category string) string {
	for _, c := range chatCategories {
		if c.Name == category {
			return c.Color
		}
	}
	return defaultCategoryColor
}

// StatusMapper classifies raw status strings. The zero value is ready to use.
type StatusMapper struct {
	index map[string]string
}

// NewStatusMapper builds a mapper over the canonical chat table.
func NewStatusMapper() *StatusMapper {
	index := make(map[string]string)
	for _, c := range chatCategories {
		for _, s := range c.Statuses {
			index[s] = c.Name
		}
	}
	return &StatusMapper{index: index}
}

// ChatCategory returns the category of a chat analysis status, or
// CategoryDefault when the status is not in the table.
func (m *StatusMapper) ChatCategory(raw string) string {
	if m == nil || m.index == nil {
		return NewStatusMapper().ChatCategory(raw)
	}
	if c, ok := m.index[raw]; ok {
		return c
	}
	return CategoryDefault
}

// Map classifies raw within the given context.
func (m *StatusMapper) Map(raw, context string) Badge {
	switch context {
	case StatusContextChat:
		return Badge{Category: m.ChatCategory(raw), Label: HumanizeStatus(raw)}
	case StatusContextSales:
		if variant, ok := salesBadges[raw]; ok {
			return Badge{Category: variant, Label: salesLabel(raw)}
		}
		if value, ok := NormalizeSalesStatus(raw); ok {
			return Badge{Category: CategoryDefault, Label: salesLabel(value)}
		}
		return Badge{Category: CategoryDefault, Label: orUnknown(raw)}
	default:
		if variant, ok := generalBadges[strings.ToLower(raw)]; ok {
			return Badge{Category: variant, Label: raw}
		}
		return Badge{Category: CategoryDefault, Label: orUnknown(raw)}
	}
}

// HumanizeStatus turns snake_case statuses into title-cased labels.
func HumanizeStatus(raw string) string {
	if raw == "" {
		return "Unknown"
	}
	return strcase.ToCase(raw, strcase.TitleCase, ' ')
}

func salesLabel(value string) string {
	for _, opt := range SalesPipeline() {
		if opt.Value == value {
			return opt.Label
		}
	}
	return HumanizeStatus(value)
}

func orUnknown(raw string) string {
	if raw == "" {
		return "Unknown"
	}
	return raw
}

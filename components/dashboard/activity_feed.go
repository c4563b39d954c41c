package dashboard

import (
	"context"
	"time"
)

// ActivityItem is a recent chat analysis entry shown in the activity widget.
type ActivityItem struct {
	LogID            int           `json:"log_id"`
	AppID            int           `json:"app_id"`
	Summary          string        `json:"summary"`
	Status           Badge         `json:"status"`
	Icon             string        `json:"icon"`
	SentimentScore   *float64      `json:"sentiment_score,omitempty"`
	FrustrationLevel *int          `json:"frustration_level,omitempty"`
	At               time.Time     `json:"at"`
	Ago              time.Duration `json:"ago"`
}

// ActivityFeed fetches recent activity entries for the current viewer.
type ActivityFeed interface {
	Recent(ctx context.Context, viewer ViewerContext, limit int) ([]ActivityItem, error)
}

// StaticActivityFeed returns fixed entries useful for tests.
type StaticActivityFeed struct {
	Items []ActivityItem
}

// Recent returns up to limit items from the static list.
func (f StaticActivityFeed) Recent(_ context.Context, _ ViewerContext, limit int) ([]ActivityItem, error) {
	if limit <= 0 || limit >= len(f.Items) {
		return append([]ActivityItem{}, f.Items...), nil
	}
	return append([]ActivityItem{}, f.Items[:limit]...), nil
}

func activityIcon(category string) string {
	switch category {
	case CategoryPositive:
		return "check-circle"
	case CategoryCritical:
		return "alert-triangle"
	case CategoryHelp:
		return "help-circle"
	default:
		return "message-square"
	}
}

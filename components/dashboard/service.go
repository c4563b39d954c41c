package dashboard

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-appinsights/components/tabular"
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap data sources and transports without
// touching the service.
type Options struct {
	Apps     Repository
	Users    Repository
	Logs     Repository
	Comments Repository

	Schemas         map[string]CollectionSchema
	Providers       ProviderRegistry
	PreferenceStore PreferenceStore
	Validator       RecordValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	StatusMapper    *StatusMapper
	// ChartCache defaults to SharedChartCache.
	ChartCache      RenderCache
	ChartAssetsHost string
	Now             func() time.Time
	NewID           func() string
}

// Service answers every read and mutation the admin surfaces need.
type Service struct {
	opts    Options
	engines map[string]*tabular.Engine
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Schemas == nil {
		opts.Schemas = DefaultSchemas()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.StatusMapper == nil {
		opts.StatusMapper = NewStatusMapper()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Providers == nil {
		opts.Providers = NewRegistry()
	}
	if opts.PreferenceStore == nil {
		opts.PreferenceStore = NewInMemoryPreferenceStore()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)

	s := &Service{opts: opts, engines: make(map[string]*tabular.Engine, len(opts.Schemas))}
	for name, schema := range opts.Schemas {
		s.engines[name] = schema.Table.Engine()
	}
	if err := RegisterDefaultProviders(opts.Providers, s, s.chartOptions()...); err != nil {
		s.recordTelemetry(context.Background(), "insights.providers.register_error", map[string]any{
			"error": err.Error(),
		})
	}
	return s
}

func (s *Service) chartOptions() []EChartsProviderOption {
	out := []EChartsProviderOption{WithChartThemeResolver(VariantThemeResolver)}
	if s.opts.ChartCache != nil {
		out = append(out, WithChartCache(s.opts.ChartCache))
	}
	if s.opts.ChartAssetsHost != "" {
		out = append(out, WithChartAssetsHost(s.opts.ChartAssetsHost))
	}
	return out
}

// Providers exposes the widget registry so callers can register more widgets.
func (s *Service) Providers() ProviderRegistry {
	return s.opts.Providers
}

// Schema returns the schema of a collection.
func (s *Service) Schema(collection string) (CollectionSchema, error) {
	schema, ok := s.opts.Schemas[collection]
	if !ok {
		return CollectionSchema{}, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return schema, nil
}

// List computes the requested view over a collection.
func (s *Service) List(ctx context.Context, req ListRequest) (tabular.Result, error) {
	schema, repo, err := s.collection(req.Collection)
	if err != nil {
		return tabular.Result{}, err
	}
	if err := schema.Table.Check(req.Query); err != nil {
		return tabular.Result{}, err
	}
	records, err := repo.All(ctx)
	if err != nil {
		return tabular.Result{}, classify("list", schema.Entity(), 0, err)
	}
	result := s.engines[req.Collection].Apply(records, req.Query)
	s.recordTelemetry(ctx, "insights.collection.list", map[string]any{
		"collection":    req.Collection,
		"total_matched": result.TotalMatched,
	})
	return result, nil
}

// Get fetches one record by id.
func (s *Service) Get(ctx context.Context, collection string, id int) (tabular.Record, error) {
	schema, repo, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	rec, err := repo.Get(ctx, id)
	if err != nil {
		return nil, classify("get", schema.Entity(), id, err)
	}
	if rec == nil {
		return nil, &NotFoundError{Entity: schema.Entity(), ID: id}
	}
	return rec, nil
}

// Create validates and stores a new record. Any Id in the payload is ignored;
// the repository assigns one.
func (s *Service) Create(ctx context.Context, collection string, record tabular.Record) (tabular.Record, error) {
	schema, repo, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	rec := record.Clone()
	if rec == nil {
		rec = tabular.Record{}
	}
	delete(rec, tabular.IDField)
	s.stampCreate(collection, rec)
	if err := s.opts.Validator.Validate(schema, rec, false); err != nil {
		return nil, err
	}
	created, err := repo.Create(ctx, rec)
	if err != nil {
		return nil, classify("create", schema.Entity(), 0, err)
	}
	id, _ := created.ID()
	s.emit(ctx, collection, ReasonCreate, id, created)
	return created, nil
}

// Update merges patch into an existing record.
func (s *Service) Update(ctx context.Context, collection string, id int, patch tabular.Record) (tabular.Record, error) {
	return s.update(ctx, collection, id, patch, ReasonUpdate)
}

func (s *Service) update(ctx context.Context, collection string, id int, patch tabular.Record, reason string) (tabular.Record, error) {
	schema, repo, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	rec := patch.Clone()
	if rec == nil {
		rec = tabular.Record{}
	}
	delete(rec, tabular.IDField)
	if collection == CollectionComments {
		rec["UpdatedAt"] = s.timestamp()
	}
	if err := s.opts.Validator.Validate(schema, rec, true); err != nil {
		return nil, err
	}
	updated, err := repo.Update(ctx, id, rec)
	if err != nil {
		return nil, classify("update", schema.Entity(), id, err)
	}
	s.emit(ctx, collection, reason, id, updated)
	return updated, nil
}

// Delete removes a record and returns it.
func (s *Service) Delete(ctx context.Context, collection string, id int) (tabular.Record, error) {
	schema, repo, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	removed, err := repo.Delete(ctx, id)
	if err != nil {
		return nil, classify("delete", schema.Entity(), id, err)
	}
	s.emit(ctx, collection, ReasonDelete, id, removed)
	return removed, nil
}

// UpdateSalesStatus moves an app to another sales pipeline stage. Both the
// stage value and its label are accepted.
func (s *Service) UpdateSalesStatus(ctx context.Context, appID int, status string) (tabular.Record, error) {
	value, ok := NormalizeSalesStatus(status)
	if !ok {
		return nil, invalidRecord("unknown sales status %q", status)
	}
	return s.update(ctx, CollectionApps, appID, tabular.Record{"SalesStatus": value}, ReasonSalesStatus)
}

// AppComments lists the comments of an app, newest first.
func (s *Service) AppComments(ctx context.Context, appID int) ([]tabular.Record, error) {
	return s.byApp(ctx, CollectionComments, appID)
}

// AddComment attaches a comment to an existing app.
func (s *Service) AddComment(ctx context.Context, appID int, comment tabular.Record) (tabular.Record, error) {
	if _, err := s.Get(ctx, CollectionApps, appID); err != nil {
		return nil, err
	}
	rec := comment.Clone()
	if rec == nil {
		rec = tabular.Record{}
	}
	rec["AppId"] = appID
	if raw := rec.String("SalesStatus"); raw != "" {
		value, ok := NormalizeSalesStatus(raw)
		if !ok {
			return nil, invalidRecord("unknown sales status %q", raw)
		}
		rec["SalesStatus"] = value
	}
	return s.Create(ctx, CollectionComments, rec)
}

// EditComment updates the text or status of a comment.
func (s *Service) EditComment(ctx context.Context, id int, patch tabular.Record) (tabular.Record, error) {
	return s.Update(ctx, CollectionComments, id, patch)
}

// RemoveComment deletes a comment.
func (s *Service) RemoveComment(ctx context.Context, id int) (tabular.Record, error) {
	return s.Delete(ctx, CollectionComments, id)
}

// AppLogs lists the analysis logs of an app, newest first.
func (s *Service) AppLogs(ctx context.Context, appID int) ([]tabular.Record, error) {
	return s.byApp(ctx, CollectionLogs, appID)
}

// RecentLogs returns the newest logs. A non-positive limit means 10.
func (s *Service) RecentLogs(ctx context.Context, limit int) ([]tabular.Record, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	result, err := s.apply(ctx, CollectionLogs, tabular.Query{
		Sort: &tabular.Sort{Field: "CreatedAt", Direction: tabular.Desc},
		Page: &tabular.Page{Index: 1, Size: limit},
	})
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// LogsBySentiment returns logs whose SentimentScore lies in [min, max].
func (s *Service) LogsBySentiment(ctx context.Context, min, max float64) ([]tabular.Record, error) {
	records, err := s.all(ctx, CollectionLogs)
	if err != nil {
		return nil, err
	}
	var out []tabular.Record
	for _, rec := range records {
		score, ok := numberValue(rec["SentimentScore"])
		if ok && score >= min && score <= max {
			out = append(out, rec)
		}
	}
	return out, nil
}

// LogsByFrustration returns logs with the given FrustrationLevel.
func (s *Service) LogsByFrustration(ctx context.Context, level int) ([]tabular.Record, error) {
	result, err := s.apply(ctx, CollectionLogs, tabular.Query{
		Filters: map[string]string{"FrustrationLevel": strconv.Itoa(level)},
	})
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// UserApps bundles a user with the apps they own.
type UserApps struct {
	User tabular.Record   `json:"user"`
	Apps []tabular.Record `json:"apps"`
}

// UserApps returns the user and every app whose UserId is the user's Id.
func (s *Service) UserApps(ctx context.Context, userID int) (UserApps, error) {
	user, err := s.Get(ctx, CollectionUsers, userID)
	if err != nil {
		return UserApps{}, err
	}
	result, err := s.apply(ctx, CollectionApps, tabular.Query{
		Filters: map[string]string{"UserId": strconv.Itoa(userID)},
	})
	if err != nil {
		return UserApps{}, err
	}
	return UserApps{User: user, Apps: result.Rows}, nil
}

// Metrics computes the headline dashboard numbers.
func (s *Service) Metrics(ctx context.Context) (Metrics, error) {
	users, err := s.all(ctx, CollectionUsers)
	if err != nil {
		return Metrics{}, err
	}
	apps, err := s.all(ctx, CollectionApps)
	if err != nil {
		return Metrics{}, err
	}
	recent, err := s.RecentLogs(ctx, criticalWindow)
	if err != nil {
		return Metrics{}, err
	}
	return ComputeMetrics(users, apps, recent, s.opts.Now(), s.opts.StatusMapper), nil
}

// StatusBreakdown counts logs per chat status category.
func (s *Service) StatusBreakdown(ctx context.Context) ([]CategoryCount, error) {
	logs, err := s.all(ctx, CollectionLogs)
	if err != nil {
		return nil, err
	}
	return ComputeBreakdown(logs, s.opts.StatusMapper), nil
}

// SalesBreakdown counts apps per sales pipeline stage.
func (s *Service) SalesBreakdown(ctx context.Context) ([]SalesCount, error) {
	apps, err := s.all(ctx, CollectionApps)
	if err != nil {
		return nil, err
	}
	return ComputeSalesBreakdown(apps), nil
}

// ActivityTrend computes a daily series over the analysis logs.
func (s *Service) ActivityTrend(ctx context.Context, q TrendQuery) ([]TrendPoint, error) {
	logs, err := s.all(ctx, CollectionLogs)
	if err != nil {
		return nil, err
	}
	return ComputeActivityTrend(logs, q, s.opts.Now(), s.opts.StatusMapper)
}

// DailyAnalysis summarizes the apps matching q. Pagination is ignored.
func (s *Service) DailyAnalysis(ctx context.Context, q tabular.Query) (DailyAnalysis, error) {
	q.Page = nil
	result, err := s.List(ctx, ListRequest{Collection: CollectionApps, Query: q})
	if err != nil {
		return DailyAnalysis{}, err
	}
	return ComputeDailyAnalysis(result.Rows), nil
}

// FilterOptions returns the sorted distinct values of a filterable field.
func (s *Service) FilterOptions(ctx context.Context, collection, field string) ([]FilterOption, error) {
	schema, err := s.Schema(collection)
	if err != nil {
		return nil, err
	}
	if f, ok := schema.Table.Field(field); !ok || !f.Filterable {
		return nil, fmt.Errorf("%w: %s is not filterable", ErrInvalidQuery, field)
	}
	records, err := s.all(ctx, collection)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var values []string
	for _, rec := range records {
		v := rec.String(field)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	slices.SortFunc(values, func(a, b string) int {
		return tabular.Compare(a, b, false)
	})
	out := make([]FilterOption, len(values))
	for i, v := range values {
		out[i] = FilterOption{Value: v, Label: optionLabel(field, v)}
	}
	return out, nil
}

func optionLabel(field, value string) string {
	switch field {
	case "SalesStatus":
		return salesLabel(value)
	case "ChatAnalysisStatus", "LastChatAnalysisStatus":
		return HumanizeStatus(value)
	}
	return value
}

// Overview resolves every registered widget for the viewer, honoring their
// saved order, hidden widgets, theme and locale. A failing provider is
// reported on its widget and does not fail the page.
func (s *Service) Overview(ctx context.Context, viewer ViewerContext) (Overview, error) {
	overrides, err := s.opts.PreferenceStore.LayoutOverrides(ctx, viewer)
	if err != nil {
		return Overview{}, err
	}
	if viewer.Theme == "" {
		viewer.Theme = overrides.Theme
	}
	if viewer.Locale == "" {
		viewer.Locale = overrides.Locale
	}
	defs := applyHiddenFilter(applyOrderOverride(s.opts.Providers.Definitions(), overrides.WidgetOrder), overrides.HiddenWidgets)
	out := Overview{Widgets: make([]Widget, 0, len(defs)), GeneratedAt: s.opts.Now()}
	for _, def := range defs {
		provider, ok := s.opts.Providers.Provider(def.Code)
		if !ok || provider == nil {
			continue
		}
		widget := Widget{
			Code:        def.Code,
			Name:        def.NameForLocale(viewer.Locale),
			Description: def.DescriptionForLocale(viewer.Locale),
			Category:    def.Category,
		}
		data, err := provider.Fetch(ctx, WidgetContext{
			Definition:    def,
			Viewer:        viewer,
			Configuration: def.Configuration,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Overview{}, ctxErr
			}
			widget.Error = err.Error()
			s.recordTelemetry(ctx, "insights.widget.provider_error", map[string]any{
				"definition": def.Code,
				"error":      err.Error(),
			})
		} else {
			widget.Data = data
		}
		out.Widgets = append(out.Widgets, widget)
	}
	s.recordTelemetry(ctx, "insights.overview.resolve", map[string]any{
		"viewer":  viewer.UserID,
		"widgets": len(out.Widgets),
	})
	return out, nil
}

// Preferences returns the saved dashboard preferences of a viewer.
func (s *Service) Preferences(ctx context.Context, viewer ViewerContext) (LayoutOverrides, error) {
	return s.opts.PreferenceStore.LayoutOverrides(ctx, viewer)
}

// SavePreferences persists per-viewer dashboard preferences.
func (s *Service) SavePreferences(ctx context.Context, viewer ViewerContext, overrides LayoutOverrides) error {
	if viewer.UserID == "" {
		return invalidRecord("viewer context missing user id")
	}
	if overrides.Theme != "" && ChartThemeForVariant(overrides.Theme) == "" {
		return invalidRecord("unknown theme variant %q", overrides.Theme)
	}
	if err := s.opts.PreferenceStore.SaveLayoutOverrides(ctx, viewer, overrides); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "insights.preferences.save", map[string]any{"viewer": viewer.UserID})
	return nil
}

// Recent satisfies ActivityFeed with the newest chat analysis logs.
func (s *Service) Recent(ctx context.Context, _ ViewerContext, limit int) ([]ActivityItem, error) {
	logs, err := s.RecentLogs(ctx, limit)
	if err != nil {
		return nil, err
	}
	now := s.opts.Now()
	items := make([]ActivityItem, 0, len(logs))
	for _, log := range logs {
		badge := s.opts.StatusMapper.Map(log.String("ChatAnalysisStatus"), StatusContextChat)
		item := ActivityItem{
			Summary: log.String("Summary"),
			Status:  badge,
			Icon:    activityIcon(badge.Category),
		}
		item.LogID, _ = log.ID()
		if appID, ok := numberValue(log["AppId"]); ok {
			item.AppID = int(appID)
		}
		if score, ok := numberValue(log["SentimentScore"]); ok {
			item.SentimentScore = &score
		}
		if level, ok := numberValue(log["FrustrationLevel"]); ok {
			lvl := int(math.Round(level))
			item.FrustrationLevel = &lvl
		}
		if at, ok := parseRecordTime(log["CreatedAt"]); ok {
			item.At = at
			item.Ago = now.Sub(at)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) byApp(ctx context.Context, collection string, appID int) ([]tabular.Record, error) {
	result, err := s.apply(ctx, collection, tabular.Query{
		Filters: map[string]string{"AppId": strconv.Itoa(appID)},
		Sort:    &tabular.Sort{Field: "CreatedAt", Direction: tabular.Desc},
	})
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// apply runs an internal query without the schema check applied to callers.
func (s *Service) apply(ctx context.Context, collection string, q tabular.Query) (tabular.Result, error) {
	records, err := s.all(ctx, collection)
	if err != nil {
		return tabular.Result{}, err
	}
	return s.engines[collection].Apply(records, q), nil
}

func (s *Service) all(ctx context.Context, collection string) ([]tabular.Record, error) {
	schema, repo, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	records, err := repo.All(ctx)
	if err != nil {
		return nil, classify("list", schema.Entity(), 0, err)
	}
	return records, nil
}

func (s *Service) collection(name string) (CollectionSchema, Repository, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return CollectionSchema{}, nil, err
	}
	var repo Repository
	switch name {
	case CollectionApps:
		repo = s.opts.Apps
	case CollectionUsers:
		repo = s.opts.Users
	case CollectionLogs:
		repo = s.opts.Logs
	case CollectionComments:
		repo = s.opts.Comments
	}
	if repo == nil {
		return CollectionSchema{}, nil, fmt.Errorf("dashboard: %s repository not configured", name)
	}
	return schema, repo, nil
}

func (s *Service) stampCreate(collection string, rec tabular.Record) {
	now := s.timestamp()
	switch collection {
	case CollectionApps:
		rec["CreatedAt"] = now
		rec["LastMessageAt"] = now
		rec["LastAIScanDate"] = now
		rec["TotalMessages"] = 0
	case CollectionComments:
		rec["CreatedAt"] = now
		rec["UpdatedAt"] = now
	case CollectionLogs:
		if _, ok := rec["CreatedAt"]; !ok {
			rec["CreatedAt"] = now
		}
	}
}

func (s *Service) timestamp() string {
	return s.opts.Now().UTC().Format(time.RFC3339)
}

// emit notifies the refresh hook about a completed mutation. A hook failure
// is recorded but does not undo or fail the mutation.
func (s *Service) emit(ctx context.Context, collection, reason string, id int, record tabular.Record) {
	actor := ActorFromContext(ctx)
	event := RecordEvent{
		ID:         s.opts.NewID(),
		Collection: collection,
		RecordID:   id,
		Reason:     reason,
		ActorID:    actor.ID(),
		Record:     record.Clone(),
		OccurredAt: s.opts.Now(),
	}
	if err := s.opts.RefreshHook.RecordChanged(ctx, event); err != nil {
		s.recordTelemetry(ctx, "insights.record.refresh_error", map[string]any{
			"collection": collection,
			"id":         id,
			"error":      err.Error(),
		})
	}
	s.recordTelemetry(ctx, "insights.record."+reason, map[string]any{
		"collection": collection,
		"id":         id,
		"actor_id":   event.ActorID,
		"event_id":   event.ID,
	})
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

type noopRefreshHook struct{}

func (noopRefreshHook) RecordChanged(context.Context, RecordEvent) error {
	return nil
}

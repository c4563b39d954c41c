package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-appinsights/components/tabular"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestListAppliesQuery(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.List(context.Background(), ListRequest{
		Collection: CollectionApps,
		Query: tabular.Query{
			Filters: map[string]string{"AppCategory": "CRM"},
			Sort:    &tabular.Sort{Field: "AppName", Direction: tabular.Asc},
			Page:    &tabular.Page{Index: 1, Size: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalMatched)
	assert.Equal(t, 2, result.TotalPages)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Acme CRM", result.Rows[0]["AppName"])
}

func TestListAppliesSeverityPriority(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.List(context.Background(), ListRequest{Collection: CollectionApps})
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "HIGH", result.Rows[0]["Severity"])
	assert.Equal(t, "LOW", result.Rows[2]["Severity"])
}

func TestListRejectsUndeclaredSort(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.List(context.Background(), ListRequest{
		Collection: CollectionApps,
		Query:      tabular.Query{Sort: &tabular.Sort{Field: "Nope"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestListUnknownCollection(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.List(context.Background(), ListRequest{Collection: "invoices"})
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestListWrapsRepositoryFailure(t *testing.T) {
	svc, repos := newTestService(t)
	repos.apps.err = errors.New("connection reset")

	_, err := svc.List(context.Background(), ListRequest{Collection: CollectionApps})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailure)
	assert.Equal(t, "connection reset", err.Error())
}

func TestGetMissingRecordIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), CollectionApps, 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "App not found", err.Error())

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 999, nf.ID)
}

func TestCreateAppStampsAndEmits(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := ContextWithActor(context.Background(), ActorContext{ActorID: "admin-1"})

	created, err := svc.Create(ctx, CollectionApps, tabular.Record{
		"Id":          42,
		"AppName":     "New Portal",
		"AppCategory": "Portal",
		"UserId":      1,
	})
	require.NoError(t, err)

	id, ok := created.ID()
	require.True(t, ok)
	assert.Equal(t, 4, id)
	stamp := fixedNow.Format(time.RFC3339)
	assert.Equal(t, stamp, created["CreatedAt"])
	assert.Equal(t, stamp, created["LastMessageAt"])
	assert.Equal(t, stamp, created["LastAIScanDate"])
	assert.Equal(t, 0, created["TotalMessages"])

	require.Len(t, repos.hook.events, 1)
	event := repos.hook.events[0]
	assert.Equal(t, "event-1", event.ID)
	assert.Equal(t, CollectionApps, event.Collection)
	assert.Equal(t, 4, event.RecordID)
	assert.Equal(t, ReasonCreate, event.Reason)
	assert.Equal(t, "admin-1", event.ActorID)
	assert.Contains(t, repos.telemetry.names(), "insights.record.create")
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	svc, repos := newTestService(t)

	_, err := svc.Create(context.Background(), CollectionApps, tabular.Record{
		"AppName":             "Broken",
		"AppCategory":         "CRM",
		"UserId":              1,
		"TechnicalComplexity": 9,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Len(t, repos.apps.records, 3)
	assert.Empty(t, repos.hook.events)
}

func TestCreateSurvivesRefreshHookFailure(t *testing.T) {
	svc, repos := newTestService(t)
	repos.hook.err = errors.New("socket closed")

	_, err := svc.Create(context.Background(), CollectionUsers, tabular.Record{
		"Name":  "Dana",
		"Email": "dana@example.com",
	})
	require.NoError(t, err)
	assert.Contains(t, repos.telemetry.names(), "insights.record.refresh_error")
}

func TestUpdateMissingRecord(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update(context.Background(), CollectionUsers, 77, tabular.Record{"Plan": "pro"})
	require.Error(t, err)
	assert.Equal(t, "User not found", err.Error())
}

func TestDeleteEmitsEvent(t *testing.T) {
	svc, repos := newTestService(t)

	removed, err := svc.Delete(context.Background(), CollectionLogs, 1)
	require.NoError(t, err)
	assert.Equal(t, "smooth_progress", removed["ChatAnalysisStatus"])
	require.Len(t, repos.hook.events, 1)
	assert.Equal(t, ReasonDelete, repos.hook.events[0].Reason)
}

func TestUpdateSalesStatusAcceptsLabel(t *testing.T) {
	svc, repos := newTestService(t)

	updated, err := svc.UpdateSalesStatus(context.Background(), 1, "Demo Scheduled")
	require.NoError(t, err)
	assert.Equal(t, "demo_scheduled", updated["SalesStatus"])
	require.Len(t, repos.hook.events, 1)
	assert.Equal(t, ReasonSalesStatus, repos.hook.events[0].Reason)
}

func TestUpdateSalesStatusRejectsUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateSalesStatus(context.Background(), 1, "maybe later")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestAppCommentsNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)

	comments, err := svc.AppComments(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Follow up next week", comments[0]["Comment"])
}

func TestAddCommentRequiresApp(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddComment(context.Background(), 404, tabular.Record{"Comment": "hello"})
	require.Error(t, err)
	assert.Equal(t, "App not found", err.Error())
}

func TestAddAndEditComment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.AddComment(ctx, 2, tabular.Record{
		"Comment":     "Sent the proposal",
		"AuthorName":  "Sam",
		"SalesStatus": "Proposal Sent",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created["AppId"])
	assert.Equal(t, "proposal_sent", created["SalesStatus"])

	fixedLater := fixedNow.Add(time.Hour)
	svc.opts.Now = func() time.Time { return fixedLater }
	id, _ := created.ID()
	edited, err := svc.EditComment(ctx, id, tabular.Record{"Comment": "Proposal accepted"})
	require.NoError(t, err)
	assert.Equal(t, "Proposal accepted", edited["Comment"])
	assert.Equal(t, fixedLater.Format(time.RFC3339), edited["UpdatedAt"])
	assert.Equal(t, fixedNow.Format(time.RFC3339), edited["CreatedAt"])

	_, err = svc.RemoveComment(ctx, id)
	require.NoError(t, err)
	_, err = svc.Get(ctx, CollectionComments, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentLogsDefaultsAndOrder(t *testing.T) {
	svc, _ := newTestService(t)

	logs, err := svc.RecentLogs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, logs, 5)
	assert.Equal(t, 5, mustID(t, logs[0]))

	logs, err = svc.RecentLogs(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, recordIDs(t, logs))
}

func TestLogsBySentimentIsInclusive(t *testing.T) {
	svc, _ := newTestService(t)

	logs, err := svc.LogsBySentiment(context.Background(), -0.5, 0.5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{3, 4, 5}, recordIDs(t, logs))
}

func TestLogsByFrustration(t *testing.T) {
	svc, _ := newTestService(t)

	logs, err := svc.LogsByFrustration(context.Background(), 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2, 3}, recordIDs(t, logs))
}

func TestAppLogs(t *testing.T) {
	svc, _ := newTestService(t)

	logs, err := svc.AppLogs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2, 1}, recordIDs(t, logs))
}

func TestUserApps(t *testing.T) {
	svc, _ := newTestService(t)

	out, err := svc.UserApps(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada", out.User["Name"])
	assert.ElementsMatch(t, []int{1, 3}, recordIDs(t, out.Apps))

	_, err = svc.UserApps(context.Background(), 50)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMetricsWithFixedClock(t *testing.T) {
	svc, _ := newTestService(t)

	m, err := svc.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Metrics{TotalUsers: 2, TotalApps: 3, CriticalIssues: 2, ActiveSessions: 2}, m)
}

func TestStatusBreakdownCanonicalOrder(t *testing.T) {
	svc, _ := newTestService(t)

	counts, err := svc.StatusBreakdown(context.Background())
	require.NoError(t, err)
	var got []string
	for _, c := range counts {
		got = append(got, c.Category)
	}
	assert.Equal(t, []string{CategoryPositive, CategoryStruggle, CategoryCritical, CategoryDefault}, got)
	assert.Equal(t, 2, counts[2].Count)
}

func TestSalesBreakdownFollowsPipeline(t *testing.T) {
	svc, _ := newTestService(t)

	counts, err := svc.SalesBreakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, len(SalesPipeline()))
	assert.Equal(t, "no_contacted", counts[0].Status)
	assert.Equal(t, 1, counts[0].Count)
	assert.Equal(t, "closed_won", counts[7].Status)
	assert.Equal(t, 1, counts[7].Count)
}

func TestDailyAnalysis(t *testing.T) {
	svc, _ := newTestService(t)

	summary, err := svc.DailyAnalysis(context.Background(), tabular.Query{Page: &tabular.Page{Index: 5, Size: 1}})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.AppsAnalyzed)
	assert.Equal(t, 1, summary.CriticalIssues)
	assert.Equal(t, 1, summary.BlockedUsers)
	assert.InDelta(t, 3.0, summary.AvgTechnicalComplexity, 0.0001)
}

func TestFilterOptions(t *testing.T) {
	svc, _ := newTestService(t)

	opts, err := svc.FilterOptions(context.Background(), CollectionApps, "SalesStatus")
	require.NoError(t, err)
	assert.Equal(t, []FilterOption{
		{Value: "closed_won", Label: "Closed Won"},
		{Value: "no_contacted", Label: "No Contacted"},
	}, opts)

	_, err = svc.FilterOptions(context.Background(), CollectionApps, "AppName")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestOverviewReportsProviderErrors(t *testing.T) {
	svc, repos := newTestService(t)
	reg := svc.Providers()
	require.NoError(t, reg.RegisterDefinition(WidgetDefinition{Code: "test.widget.broken", Name: "Broken", Position: 99}))
	require.NoError(t, reg.RegisterProvider("test.widget.broken", ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return nil, errors.New("provider exploded")
	})))

	overview, err := svc.Overview(context.Background(), ViewerContext{UserID: "viewer"})
	require.NoError(t, err)
	require.Len(t, overview.Widgets, len(DefaultWidgetDefinitions())+1)
	assert.Equal(t, WidgetMetrics, overview.Widgets[0].Code)
	assert.Equal(t, fixedNow, overview.GeneratedAt)

	last := overview.Widgets[len(overview.Widgets)-1]
	assert.Equal(t, "test.widget.broken", last.Code)
	assert.Equal(t, "provider exploded", last.Error)
	assert.Nil(t, last.Data)
	assert.Contains(t, repos.telemetry.names(), "insights.widget.provider_error")

	for _, w := range overview.Widgets[:len(overview.Widgets)-1] {
		assert.Emptyf(t, w.Error, "widget %s", w.Code)
	}
}

func TestRecentActivityItems(t *testing.T) {
	svc, _ := newTestService(t)

	items, err := svc.Recent(context.Background(), ViewerContext{}, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, 5, first.LogID)
	assert.Equal(t, CategoryDefault, first.Status.Category)
	assert.Equal(t, "Mystery State", first.Status.Label)
	assert.Equal(t, "message-square", first.Icon)
	assert.Equal(t, 30*time.Minute, first.Ago)
	require.NotNil(t, first.SentimentScore)
	assert.InDelta(t, 0.1, *first.SentimentScore, 0.0001)

	assert.Equal(t, "alert-triangle", items[1].Icon)
}

type testRepos struct {
	apps, users, logs, comments *stubRepo
	hook                        *recordingHook
	telemetry                   *recordingTelemetry
}

func newTestService(t *testing.T) (*Service, *testRepos) {
	t.Helper()
	repos := &testRepos{
		apps: newStubRepo(
			tabular.Record{"Id": 1, "AppName": "Acme CRM", "AppCategory": "CRM", "UserId": 1, "Severity": "LOW", "SalesStatus": "no_contacted", "TechnicalComplexity": 2, "UserWorkflowImpact": "MINIMAL", "LastMessageAt": "2024-05-01T08:00:00Z"},
			tabular.Record{"Id": 2, "AppName": "Billing Hub", "AppCategory": "Finance", "UserId": 2, "Severity": "HIGH", "SalesStatus": "closed_won", "TechnicalComplexity": 4, "UserWorkflowImpact": "BLOCKED", "LastMessageAt": "2024-04-29T08:00:00Z"},
			tabular.Record{"Id": 3, "AppName": "Zen CRM", "AppCategory": "CRM", "UserId": 1, "Severity": "MEDIUM", "TechnicalComplexity": 3, "LastMessageAt": "2024-04-30T13:00:00Z"},
		),
		users: newStubRepo(
			tabular.Record{"Id": 1, "Name": "Ada", "Email": "ada@example.com", "Plan": "pro"},
			tabular.Record{"Id": 2, "Name": "Brook", "Email": "brook@example.com", "Plan": "free"},
		),
		logs: newStubRepo(
			tabular.Record{"Id": 1, "AppId": 1, "ChatAnalysisStatus": "smooth_progress", "SentimentScore": 0.9, "FrustrationLevel": 0, "CreatedAt": "2024-05-01T07:00:00Z"},
			tabular.Record{"Id": 2, "AppId": 1, "ChatAnalysisStatus": "angry", "SentimentScore": -0.8, "FrustrationLevel": 4, "CreatedAt": "2024-05-01T08:00:00Z"},
			tabular.Record{"Id": 3, "AppId": 2, "ChatAnalysisStatus": "stuck", "SentimentScore": -0.5, "FrustrationLevel": 4, "CreatedAt": "2024-05-01T09:00:00Z"},
			tabular.Record{"Id": 4, "AppId": 1, "ChatAnalysisStatus": "giving_up", "SentimentScore": 0.5, "FrustrationLevel": 3, "CreatedAt": "2024-05-01T10:00:00Z"},
			tabular.Record{"Id": 5, "AppId": 3, "ChatAnalysisStatus": "mystery_state", "Summary": "Unclear", "SentimentScore": 0.1, "FrustrationLevel": 1, "CreatedAt": "2024-05-01T11:30:00Z"},
		),
		comments: newStubRepo(
			tabular.Record{"Id": 1, "AppId": 1, "Comment": "First call went well", "AuthorName": "Sam", "CreatedAt": "2024-04-20T10:00:00Z"},
			tabular.Record{"Id": 2, "AppId": 1, "Comment": "Follow up next week", "AuthorName": "Sam", "CreatedAt": "2024-04-25T10:00:00Z"},
		),
		hook:      &recordingHook{},
		telemetry: &recordingTelemetry{},
	}
	seq := 0
	svc := NewService(Options{
		Apps:        repos.apps,
		Users:       repos.users,
		Logs:        repos.logs,
		Comments:    repos.comments,
		RefreshHook: repos.hook,
		Telemetry:   repos.telemetry,
		ChartCache:  NewChartCache(0),
		Now:         func() time.Time { return fixedNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("event-%d", seq)
		},
	})
	return svc, repos
}

type stubRepo struct {
	mu      sync.Mutex
	records []tabular.Record
	err     error
}

func newStubRepo(records ...tabular.Record) *stubRepo {
	return &stubRepo{records: records}
}

func (r *stubRepo) All(context.Context) ([]tabular.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return tabular.CloneAll(r.records), nil
}

func (r *stubRepo) Get(_ context.Context, id int) (tabular.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if i := r.index(id); i >= 0 {
		return r.records[i].Clone(), nil
	}
	return nil, ErrNotFound
}

func (r *stubRepo) Create(_ context.Context, rec tabular.Record) (tabular.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 0
	for _, existing := range r.records {
		if id, ok := existing.ID(); ok && id > next {
			next = id
		}
	}
	rec = rec.Clone()
	rec[tabular.IDField] = next + 1
	r.records = append(r.records, rec)
	return rec.Clone(), nil
}

func (r *stubRepo) Update(_ context.Context, id int, patch tabular.Record) (tabular.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	for k, v := range patch {
		r.records[i][k] = v
	}
	return r.records[i].Clone(), nil
}

func (r *stubRepo) Delete(_ context.Context, id int) (tabular.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	removed := r.records[i]
	r.records = append(r.records[:i], r.records[i+1:]...)
	return removed, nil
}

func (r *stubRepo) index(id int) int {
	for i, rec := range r.records {
		if got, ok := rec.ID(); ok && got == id {
			return i
		}
	}
	return -1
}

type recordingHook struct {
	events []RecordEvent
	err    error
}

func (h *recordingHook) RecordChanged(_ context.Context, event RecordEvent) error {
	h.events = append(h.events, event)
	return h.err
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTelemetry) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type rejectingRegistry struct {
	*Registry
}

func (rejectingRegistry) RegisterProvider(string, Provider) error {
	return errors.New("registry is read-only")
}

func TestNewServiceRecordsProviderRegistrationFailure(t *testing.T) {
	tel := &recordingTelemetry{}
	NewService(Options{Providers: rejectingRegistry{NewRegistry()}, Telemetry: tel})
	assert.Contains(t, tel.names(), "insights.providers.register_error")
}

func mustID(t *testing.T, rec tabular.Record) int {
	t.Helper()
	id, ok := rec.ID()
	require.True(t, ok)
	return id
}

func recordIDs(t *testing.T, records []tabular.Record) []int {
	t.Helper()
	out := make([]int, 0, len(records))
	for _, rec := range records {
		out = append(out, mustID(t, rec))
	}
	return out
}

func TestActivityTrendBucketsByDay(t *testing.T) {
	svc, _ := newTestService(t)

	points, err := svc.ActivityTrend(context.Background(), TrendQuery{Metric: TrendLogs, Days: 2})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), points[0].Day)
	assert.Equal(t, 0.0, points[0].Value)
	assert.Equal(t, 5.0, points[1].Value)

	critical, err := svc.ActivityTrend(context.Background(), TrendQuery{Metric: TrendCritical, Days: 1})
	require.NoError(t, err)
	assert.Equal(t, 2.0, critical[0].Value)

	_, err = svc.ActivityTrend(context.Background(), TrendQuery{Metric: "revenue"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

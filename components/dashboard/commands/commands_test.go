package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/tabular"
)

func TestCreateRecordCommand(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	cmd := NewCreateRecordCommand(service, telemetry)
	var created tabular.Record
	err := cmd.Execute(context.Background(), CreateRecordInput{
		Actor:      Actor{ActorID: "ops"},
		Collection: dashboard.CollectionApps,
		Record:     tabular.Record{"AppName": "Acme"},
		Result:     &created,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.createCalls != 1 {
		t.Fatalf("expected create call")
	}
	if id, _ := created.ID(); id != 7 {
		t.Fatalf("expected created record to be returned, got %v", created)
	}
	if service.lastActor != "ops" {
		t.Fatalf("expected actor on context, got %q", service.lastActor)
	}
	if telemetry.events[0] != "insights.command.create" {
		t.Fatalf("unexpected telemetry %v", telemetry.events)
	}
}

func TestCreateRecordCommandRequiresCollection(t *testing.T) {
	cmd := NewCreateRecordCommand(&stubService{}, nil)
	if err := cmd.Execute(context.Background(), CreateRecordInput{}); err == nil {
		t.Fatalf("expected error without collection")
	}
	if err := NewCreateRecordCommand(nil, nil).Execute(context.Background(), CreateRecordInput{Collection: "apps"}); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestUpdateRecordCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewUpdateRecordCommand(service, nil)
	err := cmd.Execute(context.Background(), UpdateRecordInput{
		Collection: dashboard.CollectionApps,
		ID:         3,
		Patch:      tabular.Record{"Severity": "HIGH"},
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.updateCalls != 1 || service.lastID != 3 {
		t.Fatalf("expected update of record 3")
	}
	if err := cmd.Execute(context.Background(), UpdateRecordInput{Collection: dashboard.CollectionApps}); err == nil {
		t.Fatalf("expected error without id")
	}
}

func TestDeleteRecordCommandPropagatesNotFound(t *testing.T) {
	service := &stubService{err: &dashboard.NotFoundError{Entity: "App"}}
	telemetry := &stubTelemetry{}
	cmd := NewDeleteRecordCommand(service, telemetry)
	err := cmd.Execute(context.Background(), DeleteRecordInput{Collection: dashboard.CollectionApps, ID: 9})
	if !errors.Is(err, dashboard.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(telemetry.events) != 0 {
		t.Fatalf("expected no telemetry on failure")
	}
}

func TestUpdateSalesStatusCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewUpdateSalesStatusCommand(service, nil)
	var app tabular.Record
	if err := cmd.Execute(context.Background(), UpdateSalesStatusInput{AppID: 2, Status: "closed_won", Result: &app}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if app.String("SalesStatus") != "closed_won" {
		t.Fatalf("expected updated app, got %v", app)
	}
}

func TestCommentCommands(t *testing.T) {
	service := &stubService{}
	add := NewAddCommentCommand(service, nil)
	if err := add.Execute(context.Background(), AddCommentInput{AppID: 1, Comment: tabular.Record{"Comment": "hi"}}); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	edit := NewEditCommentCommand(service, nil)
	if err := edit.Execute(context.Background(), EditCommentInput{ID: 4, Patch: tabular.Record{"Comment": "edited"}}); err != nil {
		t.Fatalf("edit returned error: %v", err)
	}
	remove := NewRemoveCommentCommand(service, nil)
	if err := remove.Execute(context.Background(), RemoveCommentInput{ID: 4}); err != nil {
		t.Fatalf("remove returned error: %v", err)
	}
	if service.commentCalls != 3 {
		t.Fatalf("expected 3 comment calls, got %d", service.commentCalls)
	}
	if err := add.Execute(context.Background(), AddCommentInput{}); err == nil {
		t.Fatalf("expected error without app id")
	}
}

func TestSavePreferencesCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewSavePreferencesCommand(service, nil)
	err := cmd.Execute(context.Background(), SavePreferencesInput{
		Viewer:        dashboard.ViewerContext{UserID: "pat"},
		Theme:         "dark",
		HiddenWidgets: []string{dashboard.WidgetSalesPipeline},
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !service.saved.HiddenWidgets[dashboard.WidgetSalesPipeline] || service.saved.Theme != "dark" {
		t.Fatalf("unexpected overrides %+v", service.saved)
	}
	if err := cmd.Execute(context.Background(), SavePreferencesInput{}); err == nil {
		t.Fatalf("expected error without viewer")
	}
}

func TestReorderWidgetsCommandKeepsOtherPreferences(t *testing.T) {
	service := &stubService{saved: dashboard.LayoutOverrides{Theme: "dark"}}
	cmd := NewReorderWidgetsCommand(service, nil)
	err := cmd.Execute(context.Background(), ReorderWidgetsInput{
		Viewer:      dashboard.ViewerContext{UserID: "pat"},
		WidgetCodes: []string{dashboard.WidgetRecentActivity, dashboard.WidgetMetrics},
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.saved.Theme != "dark" || len(service.saved.WidgetOrder) != 2 {
		t.Fatalf("unexpected overrides %+v", service.saved)
	}
}

func TestImportRecordsCommand(t *testing.T) {
	service := &stubService{failOn: "bad"}
	telemetry := &stubTelemetry{}
	cmd := NewImportRecordsCommand(service, telemetry)
	records := []tabular.Record{{"Name": "a"}, {"Name": "bad"}, {"Name": "c"}}

	var imported int
	err := cmd.Execute(context.Background(), ImportRecordsInput{Collection: "users", Records: records, Imported: &imported})
	if err == nil || imported != 1 {
		t.Fatalf("expected stop at first failure, imported=%d err=%v", imported, err)
	}

	err = cmd.Execute(context.Background(), ImportRecordsInput{Collection: "users", Records: records, Imported: &imported, ContinueOnError: true})
	if err == nil || imported != 2 {
		t.Fatalf("expected to continue past failure, imported=%d err=%v", imported, err)
	}
	if telemetry.calls != 2 {
		t.Fatalf("expected telemetry per import, got %d", telemetry.calls)
	}
}

type stubService struct {
	createCalls  int
	updateCalls  int
	commentCalls int
	lastID       int
	lastActor    string
	saved        dashboard.LayoutOverrides
	failOn       string
	err          error
}

func (s *stubService) Create(ctx context.Context, collection string, record tabular.Record) (tabular.Record, error) {
	s.createCalls++
	s.lastActor = actorID(ctx)
	if s.failOn != "" && record.String("Name") == s.failOn {
		return nil, errors.New("rejected")
	}
	out := record.Clone()
	out[tabular.IDField] = 7
	return out, s.err
}

func (s *stubService) Update(ctx context.Context, collection string, id int, patch tabular.Record) (tabular.Record, error) {
	s.updateCalls++
	s.lastID = id
	return patch, s.err
}

func (s *stubService) Delete(ctx context.Context, collection string, id int) (tabular.Record, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return tabular.Record{tabular.IDField: id}, nil
}

func (s *stubService) UpdateSalesStatus(ctx context.Context, appID int, status string) (tabular.Record, error) {
	return tabular.Record{tabular.IDField: appID, "SalesStatus": status}, s.err
}

func (s *stubService) AddComment(ctx context.Context, appID int, comment tabular.Record) (tabular.Record, error) {
	s.commentCalls++
	return comment, s.err
}

func (s *stubService) EditComment(ctx context.Context, id int, patch tabular.Record) (tabular.Record, error) {
	s.commentCalls++
	return patch, s.err
}

func (s *stubService) RemoveComment(ctx context.Context, id int) (tabular.Record, error) {
	s.commentCalls++
	return tabular.Record{tabular.IDField: id}, s.err
}

func (s *stubService) Preferences(context.Context, dashboard.ViewerContext) (dashboard.LayoutOverrides, error) {
	return s.saved, s.err
}

func (s *stubService) SavePreferences(_ context.Context, _ dashboard.ViewerContext, overrides dashboard.LayoutOverrides) error {
	s.saved = overrides
	return s.err
}

func actorID(ctx context.Context) string {
	return dashboard.ActorFromContext(ctx).ID()
}

type stubTelemetry struct {
	calls  int
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.calls++
	s.events = append(s.events, event)
}

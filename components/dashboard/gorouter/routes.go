package gorouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/dashboard/commands"
	"github.com/goliatone/go-appinsights/components/dashboard/httpapi"
	"github.com/goliatone/go-appinsights/components/tabular"
)

// DefaultBasePath is where the API is mounted when Config.BasePath is empty.
const DefaultBasePath = "/admin/api"

// Reader is the read side of the dashboard service.
type Reader interface {
	httpapi.Reader
	AppComments(ctx context.Context, appID int) ([]tabular.Record, error)
	AppLogs(ctx context.Context, appID int) ([]tabular.Record, error)
	UserApps(ctx context.Context, userID int) (dashboard.UserApps, error)
	Metrics(ctx context.Context) (dashboard.Metrics, error)
	StatusBreakdown(ctx context.Context) ([]dashboard.CategoryCount, error)
	SalesBreakdown(ctx context.Context) ([]dashboard.SalesCount, error)
	FilterOptions(ctx context.Context, collection, field string) ([]dashboard.FilterOption, error)
	Overview(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Overview, error)
	Preferences(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.LayoutOverrides, error)
}

// ViewerResolver converts a request into a dashboard.ViewerContext.
type ViewerResolver func(RequestContext) dashboard.ViewerContext

// RequestContext is the part of router.Context the handlers use.
type RequestContext interface {
	Context() context.Context
	Param(name string, defaultValue ...string) string
	Query(name string, defaultValue ...string) string
	Header(key string) string
	Locals(key any, value ...any) any
	Body() []byte
	JSON(code int, v any) error
}

// Config wires go-router with the insights service, commands and hooks.
type Config[T any] struct {
	Router         router.Router[T]
	Service        Reader
	API            httpapi.Executor
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
}

// Routes is the subset of router.Router[T] used to mount handlers.
type Routes interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo
}

// Register mounts the REST and WebSocket routes on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Service == nil {
		return errors.New("gorouter: service is required")
	}
	base := cfg.BasePath
	if base == "" {
		base = DefaultBasePath
	}
	Mount(cfg.Router.Group(base), &Handlers{
		Service:        cfg.Service,
		API:            cfg.API,
		Broadcast:      cfg.Broadcast,
		ViewerResolver: cfg.ViewerResolver,
	})
	return nil
}

// Mount registers the handlers. Static paths are registered before
// parameterized ones so they win on routers that match in order.
func Mount(r Routes, h *Handlers) {
	r.Get("/metrics", handle(h.Metrics))
	r.Get("/status-breakdown", handle(h.StatusBreakdown))
	r.Get("/sales-breakdown", handle(h.SalesBreakdown))
	r.Get("/overview", handle(h.Overview))
	r.Get("/preferences", handle(h.Preferences))
	if h.Broadcast != nil {
		r.WebSocket("/events", router.DefaultWebSocketConfig(), h.streamEvents)
	}
	if h.API != nil {
		r.Put("/preferences", handle(h.SavePreferences))
		r.Put("/preferences/order", handle(h.ReorderWidgets))
		r.Put("/apps/:id/sales-status", handle(h.SalesStatus))
		r.Post("/apps/:id/comments", handle(h.AddComment))
		r.Put("/comments/:id", handle(h.EditComment))
		r.Delete("/comments/:id", handle(h.RemoveComment))
	}
	r.Get("/apps/:id/comments", handle(h.AppComments))
	r.Get("/apps/:id/logs", handle(h.AppLogs))
	r.Get("/users/:id/apps", handle(h.UserApps))
	r.Get("/:collection/options/:field", handle(h.FilterOptions))
	r.Get("/:collection", handle(h.List))
	r.Get("/:collection/:id", handle(h.Get))
	if h.API != nil {
		r.Post("/:collection", handle(h.Create))
		r.Put("/:collection/:id", handle(h.Update))
		r.Delete("/:collection/:id", handle(h.Delete))
	}
}

func handle(fn func(RequestContext) error) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		return fn(ctx)
	})
}

// Handlers serves the insights API over any RequestContext.
type Handlers struct {
	Service        Reader
	API            httpapi.Executor
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
}

func (h *Handlers) List(ctx RequestContext) error {
	collection := ctx.Param("collection")
	schema, err := h.Service.Schema(collection)
	if err != nil {
		return respondError(ctx, err)
	}
	q, err := httpapi.ParseListQuery(schema.Table, func(name string) string { return ctx.Query(name) })
	if err != nil {
		return respondError(ctx, err)
	}
	result, err := h.Service.List(ctx.Context(), dashboard.ListRequest{Collection: collection, Query: q})
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, result)
}

func (h *Handlers) Get(ctx RequestContext) error {
	id, err := httpapi.ParseID(ctx.Param("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	rec, err := h.Service.Get(ctx.Context(), ctx.Param("collection"), id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (h *Handlers) AppComments(ctx RequestContext) error {
	return h.byID(ctx, func(c context.Context, id int) (any, error) { return h.Service.AppComments(c, id) })
}

func (h *Handlers) AppLogs(ctx RequestContext) error {
	return h.byID(ctx, func(c context.Context, id int) (any, error) { return h.Service.AppLogs(c, id) })
}

func (h *Handlers) UserApps(ctx RequestContext) error {
	return h.byID(ctx, func(c context.Context, id int) (any, error) { return h.Service.UserApps(c, id) })
}

func (h *Handlers) Metrics(ctx RequestContext) error {
	m, err := h.Service.Metrics(ctx.Context())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"metrics": m, "cards": m.Cards()})
}

func (h *Handlers) StatusBreakdown(ctx RequestContext) error {
	counts, err := h.Service.StatusBreakdown(ctx.Context())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (h *Handlers) SalesBreakdown(ctx RequestContext) error {
	counts, err := h.Service.SalesBreakdown(ctx.Context())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (h *Handlers) FilterOptions(ctx RequestContext) error {
	opts, err := h.Service.FilterOptions(ctx.Context(), ctx.Param("collection"), ctx.Param("field"))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, opts)
}

func (h *Handlers) Overview(ctx RequestContext) error {
	overview, err := h.Service.Overview(ctx.Context(), h.viewer(ctx))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, overview)
}

func (h *Handlers) Preferences(ctx RequestContext) error {
	viewer := h.viewer(ctx)
	if viewer.UserID == "" {
		return ctx.JSON(http.StatusUnauthorized, httpapi.ErrorBody(errors.New("viewer is required")))
	}
	prefs, err := h.Service.Preferences(ctx.Context(), viewer)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, prefs)
}

func (h *Handlers) Create(ctx RequestContext) error {
	var payload tabular.Record
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpapi.ErrorBody(err))
	}
	var created tabular.Record
	input := commands.CreateRecordInput{
		Actor:      actorOf(ctx),
		Collection: ctx.Param("collection"),
		Record:     payload,
		Result:     &created,
	}
	if err := h.API.Create(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, created)
}

func (h *Handlers) Update(ctx RequestContext) error {
	id, err := httpapi.ParseID(ctx.Param("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	var patch tabular.Record
	if err := json.Unmarshal(ctx.Body(), &patch); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpapi.ErrorBody(err))
	}
	var updated tabular.Record
	input := commands.UpdateRecordInput{
		Actor:      actorOf(ctx),
		Collection: ctx.Param("collection"),
		ID:         id,
		Patch:      patch,
		Result:     &updated,
	}
	if err := h.API.Update(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (h *Handlers) Delete(ctx RequestContext) error {
	id, err := httpapi.ParseID(ctx.Param("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	var removed tabular.Record
	input := commands.DeleteRecordInput{
		Actor:      actorOf(ctx),
		Collection: ctx.Param("collection"),
		ID:         id,
		Result:     &removed,
	}
	if err := h.API.Delete(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, removed)
}

func (h *Handlers) SalesStatus(ctx RequestContext) error {
	id, err := httpapi.ParseID(ctx.Param("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpapi.ErrorBody(err))
	}
	var app tabular.Record
	input := commands.UpdateSalesStatusInput{Actor: actorOf(ctx), AppID: id, Status: payload.Status, Result: &app}
	if err := h.API.SalesStatus(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, app)
}

func (h *Handlers) AddComment(ctx RequestContext) error {
	id, err := httpapi.ParseID(ctx.Param("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	var comment tabular.Record
	if err := json.Unmarshal(ctx.Body(), &comment); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpapi.ErrorBody(err))
	}
	var created tabular.Record
	input := commands.AddCommentInput{Actor: actorOf(ctx), AppID: id, Comment: comment, Result: &created}
	if err := h.API.AddComment(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, created)
}

func (h *Handlers) EditComment(ctx RequestContext) error {
	id, err := httpapi.ParseID(ctx.Param("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	var patch tabular.Record
	if err := json.Unmarshal(ctx.Body(), &patch); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpapi.ErrorBody(err))
	}
	var updated tabular.Record
	input := commands.EditCommentInput{Actor: actorOf(ctx), ID: id, Patch: patch, Result: &updated}
	if err := h.API.EditComment(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (h *Handlers) RemoveComment(ctx RequestContext) error {
	id, err := httpapi.ParseID(ctx.Param("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	if err := h.API.RemoveComment(ctx.Context(), commands.RemoveCommentInput{Actor: actorOf(ctx), ID: id}); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handlers) SavePreferences(ctx RequestContext) error {
	var payload commands.SavePreferencesInput
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpapi.ErrorBody(err))
	}
	payload.Viewer = h.viewer(ctx)
	if payload.Viewer.UserID == "" {
		return ctx.JSON(http.StatusUnauthorized, httpapi.ErrorBody(errors.New("viewer is required")))
	}
	if err := h.API.Preferences(ctx.Context(), payload); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
}

func (h *Handlers) ReorderWidgets(ctx RequestContext) error {
	var payload commands.ReorderWidgetsInput
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpapi.ErrorBody(err))
	}
	payload.Viewer = h.viewer(ctx)
	if payload.Viewer.UserID == "" {
		return ctx.JSON(http.StatusUnauthorized, httpapi.ErrorBody(errors.New("viewer is required")))
	}
	if err := h.API.Reorder(ctx.Context(), payload); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "reordered"})
}

func (h *Handlers) byID(ctx RequestContext, fetch func(context.Context, int) (any, error)) error {
	id, err := httpapi.ParseID(ctx.Param("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	out, err := fetch(ctx.Context(), id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, out)
}

func (h *Handlers) streamEvents(ws router.WebSocketContext) error {
	events, cancel := h.Broadcast.Subscribe()
	defer cancel()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(event); err != nil {
				return err
			}
		case <-ws.Context().Done():
			return ws.Close()
		}
	}
}

func (h *Handlers) viewer(ctx RequestContext) dashboard.ViewerContext {
	if h.ViewerResolver != nil {
		return h.ViewerResolver(ctx)
	}
	return DefaultViewerResolver(ctx)
}

// DefaultViewerResolver reads the viewer from request locals set by auth
// middleware, falling back to the identity header.
func DefaultViewerResolver(ctx RequestContext) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if viewer.UserID == "" {
		viewer.UserID = strings.TrimSpace(ctx.Header(httpapi.HeaderUserID))
	}
	if roles, ok := ctx.Locals("roles").([]string); ok {
		viewer.Roles = roles
	}
	viewer.Locale = inferLocale(ctx)
	viewer.Theme = strings.ToLower(strings.TrimSpace(ctx.Query("theme")))
	return viewer
}

func inferLocale(ctx RequestContext) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return httpapi.PreferredLocale(ctx.Header("Accept-Language"))
}

func actorOf(ctx RequestContext) commands.Actor {
	return commands.Actor{
		ActorID: strings.TrimSpace(ctx.Header(httpapi.HeaderActorID)),
		UserID:  strings.TrimSpace(ctx.Header(httpapi.HeaderUserID)),
	}
}

func respondError(ctx RequestContext, err error) error {
	return ctx.JSON(httpapi.StatusFor(err), httpapi.ErrorBody(err))
}

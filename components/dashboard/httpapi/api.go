package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/dashboard/commands"
	"github.com/goliatone/go-appinsights/components/tabular"
)

// Request headers carrying the caller identity.
const (
	HeaderUserID  = "X-User-ID"
	HeaderActorID = "X-Actor-ID"
)

// Reader serves the read endpoints.
type Reader interface {
	Schema(collection string) (dashboard.CollectionSchema, error)
	List(ctx context.Context, req dashboard.ListRequest) (tabular.Result, error)
	Get(ctx context.Context, collection string, id int) (tabular.Record, error)
}

// ViewerResolver extracts the viewer from a request.
type ViewerResolver func(r *http.Request) dashboard.ViewerContext

// Handlers exposes HTTP endpoints backed by shared commands.
type Handlers struct {
	API            Executor
	Reader         Reader
	ViewerResolver ViewerResolver
}

// Mount registers every handler on mux below prefix.
func (h *Handlers) Mount(mux *http.ServeMux, prefix string) {
	prefix = strings.TrimRight(prefix, "/")
	if h.Reader != nil {
		mux.HandleFunc("GET "+prefix+"/{collection}", h.HandleList)
		mux.HandleFunc("GET "+prefix+"/{collection}/{id}", h.HandleGet)
	}
	if h.API == nil {
		return
	}
	mux.HandleFunc("POST "+prefix+"/{collection}", h.HandleCreate)
	mux.HandleFunc("PUT "+prefix+"/{collection}/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE "+prefix+"/{collection}/{id}", h.HandleDelete)
	mux.HandleFunc("PUT "+prefix+"/apps/{id}/sales-status", h.HandleSalesStatus)
	mux.HandleFunc("POST "+prefix+"/apps/{id}/comments", h.HandleAddComment)
	mux.HandleFunc("PUT "+prefix+"/comments/{id}", h.HandleEditComment)
	mux.HandleFunc("DELETE "+prefix+"/comments/{id}", h.HandleRemoveComment)
	mux.HandleFunc("PUT "+prefix+"/preferences", h.HandleSavePreferences)
	mux.HandleFunc("PUT "+prefix+"/preferences/order", h.HandleReorderWidgets)
}

func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	schema, err := h.Reader.Schema(collection)
	if err != nil {
		writeError(w, err)
		return
	}
	params := r.URL.Query()
	q, err := ParseListQuery(schema.Table, params.Get)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.Reader.List(r.Context(), dashboard.ListRequest{Collection: collection, Query: q})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.Reader.Get(r.Context(), r.PathValue("collection"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var payload tabular.Record
	if !decode(w, r, &payload) {
		return
	}
	var created tabular.Record
	input := commands.CreateRecordInput{
		Actor:      actor(r),
		Collection: r.PathValue("collection"),
		Record:     payload,
		Result:     &created,
	}
	if err := h.API.Create(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var patch tabular.Record
	if !decode(w, r, &patch) {
		return
	}
	var updated tabular.Record
	input := commands.UpdateRecordInput{
		Actor:      actor(r),
		Collection: r.PathValue("collection"),
		ID:         id,
		Patch:      patch,
		Result:     &updated,
	}
	if err := h.API.Update(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var removed tabular.Record
	input := commands.DeleteRecordInput{
		Actor:      actor(r),
		Collection: r.PathValue("collection"),
		ID:         id,
		Result:     &removed,
	}
	if err := h.API.Delete(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

func (h *Handlers) HandleSalesStatus(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &payload) {
		return
	}
	var app tabular.Record
	input := commands.UpdateSalesStatusInput{Actor: actor(r), AppID: id, Status: payload.Status, Result: &app}
	if err := h.API.SalesStatus(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handlers) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var comment tabular.Record
	if !decode(w, r, &comment) {
		return
	}
	var created tabular.Record
	input := commands.AddCommentInput{Actor: actor(r), AppID: id, Comment: comment, Result: &created}
	if err := h.API.AddComment(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) HandleEditComment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var patch tabular.Record
	if !decode(w, r, &patch) {
		return
	}
	var updated tabular.Record
	input := commands.EditCommentInput{Actor: actor(r), ID: id, Patch: patch, Result: &updated}
	if err := h.API.EditComment(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) HandleRemoveComment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.API.RemoveComment(r.Context(), commands.RemoveCommentInput{Actor: actor(r), ID: id}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleSavePreferences(w http.ResponseWriter, r *http.Request) {
	var payload commands.SavePreferencesInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = h.viewer(r)
	if payload.Viewer.UserID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorBody(errors.New("viewer is required")))
		return
	}
	if err := h.API.Preferences(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *Handlers) HandleReorderWidgets(w http.ResponseWriter, r *http.Request) {
	var payload commands.ReorderWidgetsInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = h.viewer(r)
	if payload.Viewer.UserID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorBody(errors.New("viewer is required")))
		return
	}
	if err := h.API.Reorder(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

func (h *Handlers) viewer(r *http.Request) dashboard.ViewerContext {
	if h.ViewerResolver != nil {
		return h.ViewerResolver(r)
	}
	return DefaultViewer(r)
}

// DefaultViewer reads the viewer from the identity headers and the
// Accept-Language header.
func DefaultViewer(r *http.Request) dashboard.ViewerContext {
	return dashboard.ViewerContext{
		UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Locale: PreferredLocale(r.Header.Get("Accept-Language")),
		Theme:  strings.TrimSpace(r.URL.Query().Get("theme")),
	}
}

// PreferredLocale returns the first language tag of an Accept-Language header.
func PreferredLocale(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" && token != "*" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func actor(r *http.Request) commands.Actor {
	return commands.Actor{
		ActorID: strings.TrimSpace(r.Header.Get(HeaderActorID)),
		UserID:  strings.TrimSpace(r.Header.Get(HeaderUserID)),
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody(err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), ErrorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/goliatone/go-appinsights/components/dashboard"
)

// PageRenderer renders the overview page.
type PageRenderer interface {
	RenderTemplate(ctx context.Context, viewer dashboard.ViewerContext, out io.Writer) error
}

// PageHandler serves the rendered overview page. The page is buffered so a
// rendering failure still produces a clean error response.
func PageHandler(page PageRenderer, resolve ViewerResolver) http.Handler {
	if resolve == nil {
		resolve = DefaultViewer
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := page.RenderTemplate(r.Context(), resolve(r), &buf); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	})
}

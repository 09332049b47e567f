package middleware

import (
	"context"
	"net/http"
)

type htmxKey struct{}

// HTMXRequest is what the page needs to know about an htmx-issued request.
type HTMXRequest struct {
	// Enabled is set when HX-Request is "true".
	Enabled bool
	// Target is the id of the element the response will replace.
	Target string
	// Trigger is the id of the element that fired the request.
	Trigger        string
	HistoryRestore bool
}

// Fragment reports whether the response should be a partial. History restores
// come back without the page around them, so they get the full document.
func (h HTMXRequest) Fragment() bool {
	return h.Enabled && !h.HistoryRestore
}

// HTMX reads the HX-* request headers into the context. Every response varies on
// HX-Request because the contact and widget routes answer with either a page or a partial.
func HTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := HTMXRequest{
				Enabled:        r.Header.Get("HX-Request") == "true",
				Target:         r.Header.Get("HX-Target"),
				Trigger:        r.Header.Get("HX-Trigger"),
				HistoryRestore: r.Header.Get("HX-History-Restore-Request") == "true",
			}
			w.Header().Add("Vary", "HX-Request")
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), htmxKey{}, h)))
		})
	}
}

// HTMXFromContext returns the parsed headers, or the zero value outside the middleware.
func HTMXFromContext(ctx context.Context) HTMXRequest {
	h, _ := ctx.Value(htmxKey{}).(HTMXRequest)
	return h
}

// IsHTMXRequest reports whether the current request wants a partial.
func IsHTMXRequest(ctx context.Context) bool {
	return HTMXFromContext(ctx).Fragment()
}

// TriggerEvent asks htmx to dispatch event on the client once the response is swapped in.
// Call it before the response header is written.
func TriggerEvent(w http.ResponseWriter, event string) {
	if event == "" {
		return
	}
	w.Header().Set("HX-Trigger", event)
}

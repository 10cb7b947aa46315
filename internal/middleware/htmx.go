// Package middleware holds HTTP middleware specific to the product pages.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

type htmxKey struct{}

// HTMXInfo is what htmx tells the server about the request through its HX-* headers.
type HTMXInfo struct {
	IsHTMX bool
	// Boosted is set for hx-boost navigations, which expect a full page.
	Boosted    bool
	CurrentURL string
	Target     string
	TriggerID  string
	// TriggerName is the name attribute of the triggering element. Page controls carry their event
	// target there.
	TriggerName string
}

// Fragment reports whether the response should be a partial swap rather than a full page.
func (i HTMXInfo) Fragment() bool {
	return i.IsHTMX && !i.Boosted
}

// HTMX records HX-* headers on the request context. Responses vary on HX-Request because the same
// URL serves both full pages and fragments.
func HTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header
			info := HTMXInfo{
				IsHTMX:      headerTrue(h.Get("HX-Request")),
				Boosted:     headerTrue(h.Get("HX-Boosted")),
				CurrentURL:  h.Get("HX-Current-URL"),
				Target:      h.Get("HX-Target"),
				TriggerID:   h.Get("HX-Trigger"),
				TriggerName: h.Get("HX-Trigger-Name"),
			}
			w.Header().Add("Vary", "HX-Request")
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), htmxKey{}, info)))
		})
	}
}

func headerTrue(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// HTMXInfoFromContext returns the recorded headers, or the zero value outside the middleware.
func HTMXInfoFromContext(ctx context.Context) HTMXInfo {
	info, _ := ctx.Value(htmxKey{}).(HTMXInfo)
	return info
}

func IsHTMXRequest(ctx context.Context) bool {
	return HTMXInfoFromContext(ctx).IsHTMX
}

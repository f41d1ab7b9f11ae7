package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/car-listing/internal/metrics"
)

// Metrics counts requests by chi route pattern and status. The pattern keeps
// the label set small: /cars/7 and /cars/8 both count as /cars/{id}.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveHTTP(route, strconv.Itoa(rec.status))
		})
	}
}

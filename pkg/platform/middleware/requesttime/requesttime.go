// Package requesttime pins one "now" per HTTP request so every derived value
// computed while serving it (ages, journal timestamps) agrees.
package requesttime

import (
	"net/http"
	"time"

	"registrar/pkg/requestcontext"
)

// Middleware pins the wall clock.
var Middleware = WithClock(time.Now)

// WithClock pins the value of now() taken when the request arrives.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

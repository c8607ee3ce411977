package handlers

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Recover converts handler panics into a generic 500 response so a single
// bad request cannot take the server down.
func Recover(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().
						Interface("panic", rec).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("handler panicked")
					writeError(w, http.StatusInternalServerError, jobMethods, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

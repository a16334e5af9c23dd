package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/akovalev/qa-docgen/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an id that the log handler prints, so
// log lines from one request can be correlated. An id supplied by the caller
// is kept; otherwise one is generated. The id is echoed in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()[:8]
		}

		w.Header().Set(requestIDHeader, requestID)
		ctx := logger.ContextWithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

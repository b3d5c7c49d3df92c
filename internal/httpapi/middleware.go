package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meeting-coordinator/internal/logging"
)

// RequestLogger attaches a request-scoped logger to the context and records
// method, path, status and duration for every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := base.With("method", r.Method, "path", r.URL.Path)
			ctx := logging.ContextWithLogger(r.Context(), logger)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			logger.InfoContext(ctx, "request completed",
				"status", recorder.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

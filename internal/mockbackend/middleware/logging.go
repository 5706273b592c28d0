package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// requestLog collects what inner handlers learn about a request. Auth runs
// on a derived request, so the user id is written back through this pointer.
type requestLog struct {
	status int
	userID int
	authed bool
}

type requestLogKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	log *requestLog
}

func (r *statusRecorder) WriteHeader(code int) {
	r.log.status = code
	r.ResponseWriter.WriteHeader(code)
}

func recordUserID(ctx context.Context, id int) {
	if l, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		l.userID, l.authed = id, true
	}
}

// Logger logs one line per request with the matched chi route pattern and,
// for authenticated routes, the caller's user id.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := &requestLog{status: http.StatusOK}
		rec := &statusRecorder{ResponseWriter: w, log: l}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestLogKey{}, l)))

		attrs := []any{
			"method", r.Method,
			"route", routePattern(r),
			"status", l.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if l.authed {
			attrs = append(attrs, "user_id", l.userID)
		}
		level := slog.LevelInfo
		if l.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "request", attrs...)
	})
}

// routePattern falls back to the raw path when no route matched.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

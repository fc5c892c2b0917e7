package middleware

import (
	"net/http"
	"time"

	"pet-adoption-web/internal/platform/logger"
)

// HTTPRecorder recibe cada request terminado (métricas).
type HTTPRecorder interface {
	RecordHTTP(method string, statusCode int, d time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// Unwrap deja a http.ResponseController llegar al writer original.
func (sr *statusRecorder) Unwrap() http.ResponseWriter { return sr.ResponseWriter }

// Logging loguea method, path, status, duration_ms y visitor. 5xx => error,
// 4xx => warn.
func Logging(log logger.Logger, metrics HTTPRecorder) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			d := time.Since(start)
			if metrics != nil {
				metrics.RecordHTTP(r.Method, rec.statusCode, d)
			}

			fields := map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.statusCode,
				"duration_ms": float64(d.Nanoseconds()) / float64(time.Millisecond),
			}
			if v := VisitorID(r.Context()); v != "" {
				fields["visitor"] = v
			}

			switch {
			case rec.statusCode >= 500:
				log.Error("http_request", fields)
			case rec.statusCode >= 400:
				log.Warn("http_request", fields)
			default:
				log.Info("http_request", fields)
			}
		})
	}
}

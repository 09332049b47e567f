package observability

import (
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orangeuaswe/portfolio-web/internal/httpx"
)

// InjectLogger puts logger on every request context so handlers can reach it via FromContext.
func InjectLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// RequestLogger scopes the context logger to the request and writes one
// "request completed" line when the handler returns. 5xx and panics log at error,
// 4xx at warn, everything else at info.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(requestFields(r)...)
			r = r.WithContext(WithLogger(r.Context(), logger))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			panicked := true
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				if panicked {
					status = http.StatusInternalServerError
				}
				logger.Check(completionLevel(status), "request completed").Write(
					zap.String("route", routePattern(r)),
					zap.Int("status", status),
					zap.Duration("latency", time.Since(start)),
					zap.Int("bytes", ww.BytesWritten()),
				)
			}()

			next.ServeHTTP(ww, r)
			panicked = false
		})
	}
}

// Recovery turns a handler panic into a logged error and a JSON 500. fallback is used
// when no logger was injected ahead of it.
func Recovery(fallback *zap.Logger) func(http.Handler) http.Handler {
	if fallback == nil {
		fallback = noopLogger
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger := FromContext(r.Context())
				if logger == noopLogger {
					logger = fallback
				}
				logger.Error("panic recovered", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
				httpx.WriteError(r.Context(), w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		fields = append(fields, zap.String("remote_ip", host))
	} else if r.RemoteAddr != "" {
		fields = append(fields, zap.String("remote_ip", r.RemoteAddr))
	}
	if r.Header.Get("HX-Request") == "true" {
		fields = append(fields, zap.Bool("htmx", true))
	}
	return fields
}

func completionLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

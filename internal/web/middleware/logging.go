package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	webcontext "github.com/conduit-lang/delivery/internal/web/context"
)

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	// Logger receives one entry per completed request
	Logger func(LogEntry)
	// SkipPaths is a list of paths to skip logging
	SkipPaths []string
}

// LogEntry represents a log entry for a request
type LogEntry struct {
	RequestID    string
	Method       string
	Path         string
	StatusCode   int
	Duration     time.Duration
	BytesWritten int
	RemoteAddr   string
	UserAgent    string
}

// ZapLogger writes entries to logger. Server errors are logged at error level.
func ZapLogger(logger *zap.Logger) func(LogEntry) {
	return func(entry LogEntry) {
		fields := []zap.Field{
			zap.String("request_id", entry.RequestID),
			zap.String("method", entry.Method),
			zap.String("path", entry.Path),
			zap.Int("status", entry.StatusCode),
			zap.Duration("duration", entry.Duration),
			zap.Int("bytes", entry.BytesWritten),
			zap.String("remote_addr", entry.RemoteAddr),
			zap.String("user_agent", entry.UserAgent),
		}
		if entry.StatusCode >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

// Logging logs every request to logger, except health checks and metrics scrapes
func Logging(logger *zap.Logger) Middleware {
	return LoggingWithConfig(LoggingConfig{
		Logger:    ZapLogger(logger),
		SkipPaths: []string{"/healthz", "/metrics"},
	})
}

// LoggingWithConfig creates a logging middleware with custom configuration
func LoggingWithConfig(config LoggingConfig) Middleware {
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok || config.Logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			config.Logger(LogEntry{
				RequestID:    webcontext.GetRequestID(r.Context()),
				Method:       r.Method,
				Path:         r.URL.Path,
				StatusCode:   rw.statusCode,
				Duration:     time.Since(start),
				BytesWritten: rw.bytesWritten,
				RemoteAddr:   r.RemoteAddr,
				UserAgent:    r.UserAgent(),
			})
		})
	}
}

// responseWriter captures the status code and body size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.wroteHeader {
		rw.statusCode = statusCode
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// Flush lets streaming handlers flush through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

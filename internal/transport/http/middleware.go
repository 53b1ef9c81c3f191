package http

import (
	"bufio"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/metrics"
)

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Log after request
		logRequest(logger, c.Request, c.Writer.Status(), time.Since(start))
	}
}

// MetricsMiddleware records request counts and latency per route.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// instrumentHandler is LoggerMiddleware and MetricsMiddleware for a plain
// handler mounted outside gin. For upgraded connections the duration covers
// the whole session.
func instrumentHandler(route string, next stdhttp.Handler, m *metrics.Metrics, logger *zerolog.Logger) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		logRequest(logger, r, rec.Status(), elapsed)
		if m != nil {
			m.ObserveRequest(r.Method, route, rec.Status(), elapsed)
		}
	})
}

func logRequest(logger *zerolog.Logger, r *stdhttp.Request, status int, elapsed time.Duration) {
	logger.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Dur("duration", elapsed).
		Msg("http request")
}

// statusRecorder remembers the status code and still lets the handler hijack
// the connection.
type statusRecorder struct {
	stdhttp.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = stdhttp.StatusOK
	}
	return r.ResponseWriter.Write(p)
}

// Status is the code written so far, 200 when the handler wrote nothing.
func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return stdhttp.StatusOK
	}
	return r.status
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(stdhttp.Hijacker)
	if !ok {
		return nil, nil, errors.New("http: response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() stdhttp.ResponseWriter {
	return r.ResponseWriter
}

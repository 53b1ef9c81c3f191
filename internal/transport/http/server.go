package http

import (
	stdhttp "net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/metrics"
)

// NewServer builds the HTTP server exposing the relay routes.
func NewServer(registry *core.Registry, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(registry, m, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler returns the relay routes wrapped in CORS. /ws is served outside
// gin so websocket.Accept can hijack the connection. A nil m gets a private
// metrics registry.
func NewHandler(registry *core.Registry, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	if m == nil {
		m = metrics.New()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware(m))

	rooms := NewRoomHandlers(registry, logger)

	router.GET("/", rootHandler)
	router.GET("/health", healthHandler)
	router.GET("/rooms", rooms.ListRooms)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", instrumentHandler("/ws", NewWSHandler(registry, m, cfg, logger), m, logger))
	mux.Handle("/", router)

	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{stdhttp.MethodGet},
		AllowedHeaders: []string{"*"},
	})(mux)
}

func rootHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "Hello World!")
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// originPatterns turns configured origins into websocket host patterns.
// allowAll is set when "*" is present.
func originPatterns(origins []string, logger *zerolog.Logger) (patterns []string, allowAll bool) {
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			allowAll = true
			continue
		case !strings.Contains(trimmed, "://"):
			patterns = append(patterns, strings.ToLower(trimmed))
			continue
		}

		parsed, err := url.Parse(trimmed)
		if err != nil || parsed.Host == "" {
			logger.Warn().Str("origin", origin).Msg("ignoring invalid origin in configuration")
			continue
		}
		patterns = append(patterns, strings.ToLower(parsed.Host))
	}
	return patterns, allowAll
}

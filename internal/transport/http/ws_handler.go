package http

import (
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/metrics"
	"github.com/vovakirdan/wirechat-relay/internal/session"
)

// WSHandler upgrades HTTP connections and runs a session on each.
type WSHandler struct {
	registry *core.Registry
	opts     session.Options
	accept   *websocket.AcceptOptions
	maxBytes int64
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(registry *core.Registry, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	patterns, allowAll := originPatterns(cfg.AllowedOrigins, logger)

	opts := session.Options{RateLimitPerMinute: cfg.RateLimitPerMinute}
	if m != nil {
		opts.Recorder = m
	}

	return &WSHandler{
		registry: registry,
		opts:     opts,
		accept: &websocket.AcceptOptions{
			InsecureSkipVerify: allowAll,
			OriginPatterns:     patterns,
		},
		maxBytes: cfg.MaxMessageBytes,
		log:      logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, h.accept)
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.maxBytes > 0 {
		conn.SetReadLimit(h.maxBytes)
	}

	sess := session.New(uuid.NewString(), conn, h.registry, h.opts, h.log)
	err = sess.Run(r.Context())

	status, reason := closeStatus(err)
	if status == websocket.StatusInternalError {
		h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("ws connection closed with error")
	}
	_ = conn.Close(status, reason)
}

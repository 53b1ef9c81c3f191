package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// RoomHandlers provides HTTP handlers for room endpoints.
type RoomHandlers struct {
	registry *core.Registry
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(registry *core.Registry, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		registry: registry,
		log:      logger,
	}
}

// ListRooms returns the names of rooms that currently have members.
// GET /rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.registry.Rooms()

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, proto.NewRoomList(rooms))
}

package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin/binding"
)

// Join is the first text frame a client sends: which name to use in which room.
// Both fields are required and bounded. An empty username is refused as a
// failed connection, not reported as a taken name, so no room is created for it.
type Join struct {
	Username string `json:"username" binding:"required,max=32"`
	Channel  string `json:"channel" binding:"required,max=64"`
}

var errTrailingData = errors.New("join request: trailing data after object")

// ParseJoin decodes and validates a join request. The frame must hold exactly
// one JSON object whose keys match the field names exactly; unknown keys are
// ignored.
func ParseJoin(data []byte) (Join, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return Join{}, fmt.Errorf("join request: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Join{}, errTrailingData
	}

	var join Join
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"username", &join.Username},
		{"channel", &join.Channel},
	} {
		raw, ok := fields[f.key]
		if !ok {
			return Join{}, fmt.Errorf("join request: missing %q", f.key)
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return Join{}, fmt.Errorf("join request %s: %w", f.key, err)
		}
	}

	if err := binding.Validator.ValidateStruct(&join); err != nil {
		return Join{}, err
	}
	return join, nil
}

// Plain-text notices the relay sends. They are not JSON.
const (
	NoticeConnectFailed = "Failed to connect to room!"
	NoticeNameTaken     = "Username already taken."
)

// JoinedNotice announces username arriving in a room.
func JoinedNotice(username string) string {
	return fmt.Sprintf("%s joined the chat!", username)
}

// LeftNotice announces username leaving a room.
func LeftNotice(username string) string {
	return fmt.Sprintf("%s left the chat!", username)
}

// ChatLine is how a chat message from username is rebroadcast.
func ChatLine(username, text string) string {
	return username + ": " + text
}

// Room listing statuses.
const (
	StatusRoomsFound = "Success!"
	StatusNoRooms    = "No rooms found yet!"
)

// RoomList is the body of the room listing endpoint.
type RoomList struct {
	Status string   `json:"status"`
	Rooms  []string `json:"rooms"`
}

// NewRoomList builds the listing body; rooms is never encoded as null.
func NewRoomList(rooms []string) RoomList {
	if len(rooms) == 0 {
		return RoomList{Status: StatusNoRooms, Rooms: []string{}}
	}
	return RoomList{Status: StatusRoomsFound, Rooms: rooms}
}

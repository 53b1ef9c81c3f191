package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeNameTaken    = "name_taken"
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeBadHandshake = "bad_handshake"
)

var (
	ErrNameTaken    = errors.New("username already taken")
	ErrRoomNotFound = errors.New("room not found")
	ErrBadHandshake = errors.New("bad handshake")
	ErrStreamClosed = errors.New("broadcast stream closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel so callers can use errors.Is.
func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string, err error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: err}
}

// Code returns the domain code carried by err, or "" when err is not a CoreError.
func Code(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

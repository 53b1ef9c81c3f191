// Package session drives one client connection through the relay protocol:
// a single JSON join request, then plain chat lines until either side hangs up.
package session

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// ErrUnexpectedFrame ends an active session that receives a non-text frame.
var ErrUnexpectedFrame = errors.New("unexpected non-text frame")

// State is where a session is in its lifecycle.
type State int32

const (
	StateHandshaking State = iota
	StateActive
	StateClosing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Conn is the message-oriented connection a session owns. *websocket.Conn satisfies it.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
}

// Recorder receives session counters. *metrics.Metrics satisfies it.
type Recorder interface {
	SessionStarted()
	SessionEnded()
	LineBroadcast()
	LinesDropped(n uint64)
	LineThrottled()
	HandshakeFailed(reason string)
}

// Options tune a session. The zero value means no rate limit and no metrics.
type Options struct {
	RateLimitPerMinute int
	Recorder           Recorder
}

// Session is one client's lifecycle against one room.
type Session struct {
	ID string

	conn     Conn
	registry *core.Registry
	recorder Recorder
	limiter  *rateLimiter
	log      *zerolog.Logger
	state    atomic.Int32

	username string
	roomName string
	room     *core.Room
	sub      *core.Subscription
}

// New prepares a session in the Handshaking state. Nothing is read until Run.
func New(id string, conn Conn, registry *core.Registry, opts Options, logger *zerolog.Logger) *Session {
	l := logger.With().Str("session_id", id).Logger()

	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Session{
		ID:       id,
		conn:     conn,
		registry: registry,
		recorder: recorder,
		limiter:  newRateLimiter(opts.RateLimitPerMinute),
		log:      &l,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Identity returns the username and room fixed by the handshake, empty until
// the session is Active. The state store publishes both fields.
func (s *Session) Identity() (username, room string) {
	if s.State() < StateActive {
		return "", ""
	}
	return s.username, s.roomName
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	s.log.Debug().Stringer("state", st).Msg("session state")
}

// Run drives the session until it terminates and returns the reason.
// A clean disconnect by the peer is reported as the transport's close error;
// handshake rejections are *core.CoreError values. Leaving the room always
// happens once the session became active, whatever ended it.
func (s *Session) Run(ctx context.Context) error {
	defer s.setState(StateTerminated)

	if err := s.handshake(ctx); err != nil {
		return err
	}

	s.recorder.SessionStarted()
	defer s.recorder.SessionEnded()

	s.setState(StateActive)
	err := s.active(ctx)

	s.setState(StateClosing)
	s.cleanup()
	return err
}

// handshake waits for the join request and reserves the username in its room.
// Binary frames before the request are ignored.
func (s *Session) handshake(ctx context.Context) error {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		join, err := proto.ParseJoin(data)
		if err != nil {
			s.log.Debug().Err(err).Msg("invalid join request")
			s.recorder.HandshakeFailed(core.ErrCodeBadHandshake)
			s.notify(ctx, proto.NoticeConnectFailed)
			return &core.CoreError{Code: core.ErrCodeBadHandshake, Message: "invalid join request", Err: core.ErrBadHandshake}
		}

		room, sub, err := s.registry.Join(join.Channel, join.Username)
		if err != nil {
			s.recorder.HandshakeFailed(core.Code(err))
			if errors.Is(err, core.ErrNameTaken) {
				s.log.Info().Str("room", join.Channel).Str("username", join.Username).Msg("username already taken")
				s.notify(ctx, proto.NoticeNameTaken)
			} else {
				s.log.Warn().Err(err).Str("room", join.Channel).Msg("join failed")
				s.notify(ctx, proto.NoticeConnectFailed)
			}
			return err
		}

		s.username, s.roomName = join.Username, join.Channel
		s.room, s.sub = room, sub
		l := s.log.With().Str("room", s.roomName).Str("username", s.username).Logger()
		s.log = &l
		s.log.Info().Msg("joined room")
		return nil
	}
}

// active announces the arrival and runs both loops until the first one ends.
func (s *Session) active(ctx context.Context) error {
	s.broadcast(proto.JoinedNotice(s.username))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.inboundLoop(ctx)
	}()
	go func() {
		errCh <- s.outboundLoop(ctx)
	}()

	err := <-errCh
	cancel() // stop the other loop
	if other := <-errCh; other != nil && !errors.Is(other, context.Canceled) {
		s.log.Debug().Err(other).Msg("second loop ended with error")
	}
	return err
}

// inboundLoop rebroadcasts every text frame with the username prefix.
func (s *Session) inboundLoop(ctx context.Context) error {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			return ErrUnexpectedFrame
		}
		if !s.limiter.allow() {
			s.recorder.LineThrottled()
			s.log.Debug().Msg("rate limit exceeded; discarding line")
			continue
		}
		s.broadcast(proto.ChatLine(s.username, string(data)))
	}
}

// outboundLoop forwards every line on the subscription to the connection.
func (s *Session) outboundLoop(ctx context.Context) error {
	for {
		line, skipped, err := s.sub.Recv(ctx)
		if err != nil {
			return err
		}
		if skipped > 0 {
			s.recorder.LinesDropped(skipped)
			s.log.Debug().Uint64("skipped", skipped).Msg("subscriber lagged; oldest lines dropped")
		}
		if err := s.conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
			return err
		}
	}
}

// cleanup announces the departure and releases the username. A room that is
// already gone is logged and otherwise ignored.
func (s *Session) cleanup() {
	s.sub.Close()
	s.broadcast(proto.LeftNotice(s.username))

	removed, err := s.registry.Leave(s.roomName, s.username)
	if err != nil {
		s.log.Error().Err(err).Msg("room missing during cleanup")
		return
	}
	if removed {
		s.log.Info().Msg("room closed")
	}
	s.log.Info().Msg("left room")
}

func (s *Session) broadcast(line string) {
	s.room.Broadcast(line)
	s.recorder.LineBroadcast()
}

// notify sends a single plain-text notice; failures are only logged since
// the session ends right after.
func (s *Session) notify(ctx context.Context, text string) {
	if err := s.conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
		s.log.Debug().Err(err).Msg("failed to send notice")
	}
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted()        {}
func (nopRecorder) SessionEnded()          {}
func (nopRecorder) LineBroadcast()         {}
func (nopRecorder) LinesDropped(uint64)    {}
func (nopRecorder) LineThrottled()         {}
func (nopRecorder) HandshakeFailed(string) {}

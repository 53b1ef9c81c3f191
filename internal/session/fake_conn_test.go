package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/log"
)

type frame struct {
	typ  websocket.MessageType
	data []byte
}

// fakeConn is an in-memory Conn. Closing in simulates the peer hanging up.
type fakeConn struct {
	in  chan frame
	out chan string

	// gate, when set before Run, makes every Write wait for a token.
	gate chan struct{}

	mu       sync.Mutex
	writeErr error
	hangup   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:  make(chan frame, 16),
		out: make(chan string, 64),
	}
}

func (c *fakeConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case f, ok := <-c.in:
		if !ok {
			return 0, nil, io.EOF
		}
		return f.typ, f.data, nil
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (c *fakeConn) Write(ctx context.Context, _ websocket.MessageType, p []byte) error {
	c.mu.Lock()
	err := c.writeErr
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case c.out <- string(p):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *fakeConn) sendText(s string) { c.in <- frame{typ: websocket.MessageText, data: []byte(s)} }

func (c *fakeConn) sendBinary(b []byte) { c.in <- frame{typ: websocket.MessageBinary, data: b} }

func (c *fakeConn) close() { c.hangup.Do(func() { close(c.in) }) }

func (c *fakeConn) failWrites(err error) {
	c.mu.Lock()
	c.writeErr = err
	c.mu.Unlock()
}

var errBrokenPipe = errors.New("broken pipe")

func (c *fakeConn) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-c.out:
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected %q, got nothing", want)
	}
}

func (c *fakeConn) expectNothing(t *testing.T) {
	t.Helper()
	select {
	case got := <-c.out:
		t.Fatalf("expected no output, got %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

type countingRecorder struct {
	mu        sync.Mutex
	started   int
	ended     int
	broadcast int
	dropped   uint64
	throttled int
	failures  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{failures: make(map[string]int)}
}

func (r *countingRecorder) SessionStarted() { r.mu.Lock(); r.started++; r.mu.Unlock() }
func (r *countingRecorder) SessionEnded()   { r.mu.Lock(); r.ended++; r.mu.Unlock() }
func (r *countingRecorder) LineBroadcast()  { r.mu.Lock(); r.broadcast++; r.mu.Unlock() }
func (r *countingRecorder) LineThrottled()  { r.mu.Lock(); r.throttled++; r.mu.Unlock() }

func (r *countingRecorder) LinesDropped(n uint64) {
	r.mu.Lock()
	r.dropped += n
	r.mu.Unlock()
}

func (r *countingRecorder) HandshakeFailed(reason string) {
	r.mu.Lock()
	r.failures[reason]++
	r.mu.Unlock()
}

type running struct {
	sess *Session
	conn *fakeConn
	done chan error
}

func start(t *testing.T, reg *core.Registry, opts Options) *running {
	t.Helper()

	conn := newFakeConn()
	sess := New(t.Name(), conn, reg, opts, log.Nop())
	r := &running{sess: sess, conn: conn, done: make(chan error, 1)}
	go func() { r.done <- sess.Run(context.Background()) }()
	t.Cleanup(conn.close)
	return r
}

func (r *running) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate")
		return nil
	}
}

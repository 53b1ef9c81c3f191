package core

import (
	"context"
	"sync"
)

// Stream fans text lines out to every subscriber without replay.
//
// The last capacity lines are retained in a ring and each subscriber reads
// through its own cursor, so publishing never blocks on a slow reader.
// Overflow policy is drop-oldest per subscriber: a reader that falls more
// than capacity lines behind resumes at the oldest line still retained and
// learns how many lines it missed.
type Stream struct {
	mu     sync.Mutex
	ring   []string
	next   uint64 // sequence number the next published line gets
	wake   chan struct{}
	subs   int
	closed bool
}

// NewStream constructs a stream retaining up to capacity lines.
func NewStream(capacity int) *Stream {
	if capacity <= 0 {
		capacity = 1
	}
	return &Stream{
		ring: make([]string, capacity),
		wake: make(chan struct{}),
	}
}

// Publish appends a line and wakes waiting readers. It returns the number of
// subscribers at the time of publishing; lines published to a closed stream
// are discarded and 0 is returned.
func (s *Stream) Publish(line string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}
	s.ring[s.next%uint64(len(s.ring))] = line
	s.next++
	close(s.wake)
	s.wake = make(chan struct{})
	return s.subs
}

// Subscribe returns a reader positioned after the last published line.
func (s *Stream) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &Subscription{
		stream: s,
		cursor: s.next,
		done:   make(chan struct{}),
	}
	if s.closed {
		sub.closed = true
		close(sub.done)
		return sub
	}
	s.subs++
	return sub
}

// Subscribers returns the number of open subscriptions.
func (s *Stream) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs
}

// Capacity returns how many lines the stream retains.
func (s *Stream) Capacity() int {
	return len(s.ring)
}

// Close ends the stream. Readers drain what is still retained for them and
// then get ErrStreamClosed. Closing twice is a no-op.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.wake)
}

// Subscription is one reader's cursor into a Stream. Recv must not be called
// concurrently; Close may be called from any goroutine.
type Subscription struct {
	stream *Stream
	cursor uint64
	done   chan struct{}
	closed bool
}

// Recv blocks until the next line is available. skipped is the number of
// lines this subscriber lost to overflow right before line.
func (sub *Subscription) Recv(ctx context.Context) (line string, skipped uint64, err error) {
	s := sub.stream
	for {
		s.mu.Lock()
		if sub.closed {
			s.mu.Unlock()
			return "", 0, ErrStreamClosed
		}
		if sub.cursor < s.next {
			capacity := uint64(len(s.ring))
			if oldest := s.next - min(s.next, capacity); sub.cursor < oldest {
				skipped = oldest - sub.cursor
				sub.cursor = oldest
			}
			line = s.ring[sub.cursor%capacity]
			sub.cursor++
			s.mu.Unlock()
			return line, skipped, nil
		}
		if s.closed {
			s.mu.Unlock()
			return "", 0, ErrStreamClosed
		}
		wake := s.wake
		s.mu.Unlock()

		select {
		case <-wake:
		case <-sub.done:
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
	}
}

// Pending returns how many published lines this subscriber has not read yet,
// counting lines that will be skipped.
func (sub *Subscription) Pending() uint64 {
	s := sub.stream
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.closed {
		return 0
	}
	return s.next - sub.cursor
}

// Close detaches the subscription from the stream. It is idempotent.
func (sub *Subscription) Close() {
	s := sub.stream
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.done)
	s.subs--
}

package core

import (
	"context"
	"testing"
	"time"
)

func mustRecv(t *testing.T, sub *Subscription) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	line, _, err := sub.Recv(ctx)
	if err != nil {
		t.Fatalf("expected a line, got error %v", err)
	}
	return line
}

func mustNotRecv(t *testing.T, sub *Subscription) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if line, _, err := sub.Recv(ctx); err == nil {
		t.Fatalf("expected no line, got %q", line)
	}
}

type recordingObserver struct {
	created []string
	removed []string
}

func (o *recordingObserver) RoomCreated(name string) { o.created = append(o.created, name) }
func (o *recordingObserver) RoomRemoved(name string) { o.removed = append(o.removed, name) }

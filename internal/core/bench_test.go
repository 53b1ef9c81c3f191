package core

import (
	"context"
	"strconv"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := NewRegistry(64, nil)

	room, target, err := reg.Join("bench", "target")
	if err != nil {
		b.Fatalf("join target: %v", err)
	}
	defer target.Close()

	// Drain every other recipient so they keep up; lagging ones would only skip.
	for i := 1; i < recipients; i++ {
		_, sub, err := reg.Join("bench", "c"+strconv.Itoa(i))
		if err != nil {
			b.Fatalf("join: %v", err)
		}
		go func(s *Subscription) {
			defer s.Close()
			for {
				if _, _, err := s.Recv(ctx); err != nil {
					return
				}
			}
		}(sub)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		room.Broadcast("sender: payload")
		if _, _, err := target.Recv(ctx); err != nil {
			b.Fatalf("recv: %v", err)
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-relay/internal/log"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func main() {
	logger := log.New("info", "console")
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("ws_smoke failed")
		os.Exit(1)
	}
	logger.Info().Msg("ws_smoke ok")
}

// run joins a room, sends one line and waits for the relay to echo it back.
func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to join with")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	if err := wsjson.Write(ctx, conn, proto.Join{Username: *user, Channel: *room}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	want := []string{proto.JoinedNotice(*user), proto.ChatLine(*user, *text)}
	sent := false

	for len(want) > 0 {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		line := string(data)
		fmt.Printf("received: %q\n", line)

		switch line {
		case proto.NoticeConnectFailed, proto.NoticeNameTaken:
			return fmt.Errorf("join rejected: %s", line)
		case want[0]:
			want = want[1:]
		}

		if !sent && len(want) == 1 {
			if err := conn.Write(ctx, websocket.MessageText, []byte(*text)); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			sent = true
		}
	}

	return conn.Close(websocket.StatusNormalClosure, "bye")
}

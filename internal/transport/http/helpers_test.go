package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/metrics"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	*httptest.Server
	registry *core.Registry
}

func startTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	for _, fn := range mutate {
		fn(&cfg)
	}

	disabledLogger := zerolog.New(nil)
	m := metrics.New()
	reg := core.NewRegistry(cfg.RoomBufferSize, m)

	ts := httptest.NewServer(NewHandler(reg, m, &cfg, &disabledLogger))
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, registry: reg}
}

func (ts *testServer) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// join dials, sends the handshake and consumes the caller's own join notice.
func (ts *testServer) join(t *testing.T, ctx context.Context, username, channel string) *websocket.Conn {
	t.Helper()

	conn := ts.dial(t, ctx)
	sendJoin(t, ctx, conn, username, channel)
	require.Equal(t, proto.JoinedNotice(username), readText(t, ctx, conn))
	return conn
}

func (ts *testServer) rooms(t *testing.T) proto.RoomList {
	t.Helper()

	resp, err := ts.Client().Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	var list proto.RoomList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	return list
}

// roomNames is rooms without assertions, for use inside require.Eventually.
func (ts *testServer) roomNames() ([]string, bool) {
	resp, err := ts.Client().Get(ts.URL + "/rooms")
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	var list proto.RoomList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, false
	}
	return list.Rooms, true
}

func sendJoin(t *testing.T, ctx context.Context, conn *websocket.Conn, username, channel string) {
	t.Helper()

	payload, err := json.Marshal(proto.Join{Username: username, Channel: channel})
	require.NoError(t, err)
	sendText(t, ctx, conn, string(payload))
}

func sendText(t *testing.T, ctx context.Context, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(text)))
}

func readText(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	typ, data, err := conn.Read(readCtx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, typ)
	return string(data)
}

// expectClosed asserts the server ends the connection with a close frame of the given status.
func expectClosed(t *testing.T, ctx context.Context, conn *websocket.Conn, status websocket.StatusCode) {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, _, err := conn.Read(readCtx)
	require.Error(t, err)
	require.Equal(t, status, websocket.CloseStatus(err))
}

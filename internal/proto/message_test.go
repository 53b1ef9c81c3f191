package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotices(t *testing.T) {
	require.Equal(t, "alice joined the chat!", JoinedNotice("alice"))
	require.Equal(t, "alice left the chat!", LeftNotice("alice"))
	require.Equal(t, "alice: hi", ChatLine("alice", "hi"))
}

func TestRoomListEncoding(t *testing.T) {
	raw, err := json.Marshal(NewRoomList(nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"No rooms found yet!","rooms":[]}`, string(raw))

	raw, err = json.Marshal(NewRoomList([]string{"lobby"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"Success!","rooms":["lobby"]}`, string(raw))
}

func TestParseJoin(t *testing.T) {
	join, err := ParseJoin([]byte(`{"username":"alice","channel":"lobby","client":"cli"}`))
	require.NoError(t, err)
	require.Equal(t, Join{Username: "alice", Channel: "lobby"}, join)

	rejected := map[string]string{
		"not json":        "hello there",
		"json string":     `"alice"`,
		"null":            "null",
		"missing channel": `{"username":"alice"}`,
		"null username":   `{"username":null,"channel":"lobby"}`,
		"empty username":  `{"username":"","channel":"lobby"}`,
		"wrong types":     `{"username":1,"channel":"lobby"}`,
		"name too long":   `{"username":"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","channel":"lobby"}`,
		"trailing text":   `{"username":"alice","channel":"lobby"} trailing`,
		"second object":   `{"username":"alice","channel":"lobby"}{"x":1}`,
		"upper-case keys": `{"USERNAME":"alice","CHANNEL":"lobby"}`,
		"mixed-case key":  `{"Username":"alice","channel":"lobby"}`,
	}
	for name, payload := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJoin([]byte(payload))
			require.Error(t, err)
		})
	}
}

package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomJoinRejectsTakenName(t *testing.T) {
	room := NewRoom("lobby", 8)

	sub, err := room.TryJoin("alice")
	require.NoError(t, err)
	defer sub.Close()

	_, err = room.TryJoin("alice")
	require.ErrorIs(t, err, ErrNameTaken)
	require.Equal(t, ErrCodeNameTaken, Code(err))
	require.Equal(t, 1, room.MemberCount())

	bob, err := room.TryJoin("bob")
	require.NoError(t, err)
	defer bob.Close()
	require.Equal(t, []string{"alice", "bob"}, room.Members())
}

func TestRoomNameFreedAfterLeave(t *testing.T) {
	room := NewRoom("lobby", 8)

	sub, err := room.TryJoin("alice")
	require.NoError(t, err)
	sub.Close()

	require.True(t, room.Leave("alice"))
	require.False(t, room.HasMember("alice"))

	again, err := room.TryJoin("alice")
	require.NoError(t, err)
	again.Close()
}

func TestRoomLeaveIsIdempotent(t *testing.T) {
	room := NewRoom("lobby", 8)

	require.False(t, room.Leave("ghost"))

	sub, err := room.TryJoin("alice")
	require.NoError(t, err)
	defer sub.Close()

	require.True(t, room.Leave("alice"))
	require.False(t, room.Leave("alice"))
	require.Zero(t, room.MemberCount())
}

func TestRoomBroadcastReachesJoinerIncludingSelf(t *testing.T) {
	room := NewRoom("lobby", 8)

	alice, err := room.TryJoin("alice")
	require.NoError(t, err)
	defer alice.Close()

	require.Equal(t, 1, room.Broadcast("alice joined the chat!"))
	require.Equal(t, "alice joined the chat!", mustRecv(t, alice))

	bob, err := room.TryJoin("bob")
	require.NoError(t, err)
	defer bob.Close()

	room.Broadcast("bob: hi")
	require.Equal(t, "bob: hi", mustRecv(t, alice))
	require.Equal(t, "bob: hi", mustRecv(t, bob))
}

func TestClosedRoomRejectsJoins(t *testing.T) {
	room := NewRoom("lobby", 8)
	room.close()

	_, err := room.TryJoin("alice")
	require.True(t, errors.Is(err, ErrRoomNotFound))
	require.Zero(t, room.Broadcast("nobody hears this"))
}

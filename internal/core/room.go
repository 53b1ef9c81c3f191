package core

import (
	"slices"
	"sync"
)

// Room groups the usernames present in one channel and the stream they share.
type Room struct {
	Name string

	mu      sync.Mutex
	members map[string]struct{}
	stream  *Stream
	closed  bool
}

// NewRoom constructs a room with no members and a stream retaining bufferSize lines.
func NewRoom(name string, bufferSize int) *Room {
	return &Room{
		Name:    name,
		members: make(map[string]struct{}),
		stream:  NewStream(bufferSize),
	}
}

// TryJoin reserves username in the room and subscribes it to the stream.
// The subscription starts after the last line broadcast so far.
func (r *Room) TryJoin(username string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, coreError(ErrCodeRoomNotFound, "room closed", ErrRoomNotFound)
	}
	if _, exists := r.members[username]; exists {
		return nil, coreError(ErrCodeNameTaken, "Username already taken.", ErrNameTaken)
	}
	r.members[username] = struct{}{}
	return r.stream.Subscribe(), nil
}

// Leave releases username. Returns true if it was a member.
func (r *Room) Leave(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[username]; !exists {
		return false
	}
	delete(r.members, username)
	return true
}

// Broadcast publishes a line to every subscriber and returns how many there were.
func (r *Room) Broadcast(line string) int {
	return r.stream.Publish(line)
}

// MemberCount returns the number of reserved usernames.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// HasMember reports whether username is reserved in the room.
func (r *Room) HasMember(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[username]
	return ok
}

// Members returns the reserved usernames in sorted order.
func (r *Room) Members() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	r.mu.Unlock()

	slices.Sort(names)
	return names
}

// close marks the room torn down and ends its stream. Later joins fail.
func (r *Room) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.stream.Close()
}

package core

import (
	"slices"
	"sync"
)

// Observer is told when rooms appear and disappear. Calls are made with the
// registry lock held, so implementations must not call back into the Registry.
type Observer interface {
	RoomCreated(name string)
	RoomRemoved(name string)
}

// Registry owns the set of live rooms. A room is created on first join and
// removed by the departure that empties it.
//
// Lock order is Registry.mu before Room.mu.
type Registry struct {
	mu         sync.Mutex
	rooms      map[string]*Room
	bufferSize int
	observer   Observer
}

// NewRegistry creates an empty registry whose rooms retain bufferSize lines.
// observer may be nil.
func NewRegistry(bufferSize int, observer Observer) *Registry {
	return &Registry{
		rooms:      make(map[string]*Room),
		bufferSize: bufferSize,
		observer:   observer,
	}
}

// GetOrCreate returns the room called name, creating it if absent.
//
// The returned handle may be torn down by a concurrent RemoveIfEmpty before
// the caller joins it, in which case Room.TryJoin fails with ErrRoomNotFound.
// Join avoids that window.
func (g *Registry) GetOrCreate(name string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getOrCreateLocked(name)
}

func (g *Registry) getOrCreateLocked(name string) *Room {
	if room, ok := g.rooms[name]; ok {
		return room
	}
	room := NewRoom(name, g.bufferSize)
	g.rooms[name] = room
	if g.observer != nil {
		g.observer.RoomCreated(name)
	}
	return room
}

// Join resolves the room and reserves username in one critical section.
// A room created for a join that is then rejected is removed again.
func (g *Registry) Join(roomName, username string) (*Room, *Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room := g.getOrCreateLocked(roomName)
	sub, err := room.TryJoin(username)
	if err != nil {
		g.removeIfEmptyLocked(roomName)
		return nil, nil, err
	}
	return room, sub, nil
}

// Leave releases username from the room and removes the room if that left
// it empty. removed reports whether the room was torn down. A missing room is
// an internal invariant violation and yields ErrRoomNotFound.
func (g *Registry) Leave(roomName, username string) (removed bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[roomName]
	if !ok {
		return false, coreError(ErrCodeRoomNotFound, "room "+roomName+" not found", ErrRoomNotFound)
	}
	room.Leave(username)
	return g.removeIfEmptyLocked(roomName), nil
}

// RemoveIfEmpty tears the room down if it has no members. Emptiness is
// checked under the same lock that guards joins through the registry.
func (g *Registry) RemoveIfEmpty(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeIfEmptyLocked(name)
}

func (g *Registry) removeIfEmptyLocked(name string) bool {
	room, ok := g.rooms[name]
	if !ok || room.MemberCount() > 0 {
		return false
	}
	delete(g.rooms, name)
	room.close()
	if g.observer != nil {
		g.observer.RoomRemoved(name)
	}
	return true
}

// Room looks a room up without creating it.
func (g *Registry) Room(name string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[name]
	return room, ok
}

// Rooms returns the names of live rooms in sorted order.
func (g *Registry) Rooms() []string {
	g.mu.Lock()
	names := make([]string, 0, len(g.rooms))
	for name := range g.rooms {
		names = append(names, name)
	}
	g.mu.Unlock()

	slices.Sort(names)
	return names
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

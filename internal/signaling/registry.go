package signaling

import (
	"slices"
	"sync"
)

// Registry tracks which users are in which room. Rooms are created
// implicitly on first join and deleted when their last member leaves.
//
// The hub's run loop is the only writer, but the registry carries its own
// lock so the stats endpoint (and any future multi-goroutine caller) can
// read it safely.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]struct{}),
	}
}

// Join adds userID to roomID, creating the room if it does not exist yet.
// Joining a room you are already in is a no-op.
func (r *Registry) Join(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[string]struct{})
		r.rooms[roomID] = room
	}
	room[userID] = struct{}{}
}

// Leave removes userID from roomID. If that empties the room, the room
// entry itself is deleted so memory stays bounded by active rooms. Unknown
// rooms and users are no-ops.
func (r *Registry) Leave(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
}

// Members returns the user IDs currently in roomID, sorted for stable
// output. An unknown room yields an empty slice.
func (r *Registry) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.rooms[roomID]))
	for id := range r.rooms[roomID] {
		members = append(members, id)
	}
	slices.Sort(members)
	return members
}

// MembersExcluding returns the user IDs in roomID other than userID.
// This answers "who is already here" when a new user joins.
func (r *Registry) MembersExcluding(roomID, userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.rooms[roomID]))
	for id := range r.rooms[roomID] {
		if id != userID {
			members = append(members, id)
		}
	}
	slices.Sort(members)
	return members
}

// RoomCount returns the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// UserCount returns the total number of users across all rooms.
func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, room := range r.rooms {
		n += len(room)
	}
	return n
}

// MemberCount returns the number of users in roomID, 0 if unknown.
func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

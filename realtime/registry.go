package realtime

import "sync"

// Subscriber is one realtime connection's inbox. Send must not block: it
// returns false when the subscriber is saturated or already gone, and the
// event is simply dropped for that subscriber.
type Subscriber interface {
	Send(data []byte) bool
}

// RoomRegistry tracks which connections have joined which project rooms. It is
// plain process state with no persistence: rooms are rebuilt from scratch by
// clients rejoining after a restart. An instance is injected into the gateway
// and broadcaster rather than held as a package global so tests get isolated
// registries.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[Subscriber]struct{}
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]map[Subscriber]struct{})}
}

// Join adds the subscriber to a project's room. Joining twice is a no-op.
func (r *RoomRegistry) Join(projectID string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[projectID]
	if !ok {
		room = make(map[Subscriber]struct{})
		r.rooms[projectID] = room
	}
	room[sub] = struct{}{}
}

// Remove drops the subscriber from every room it had joined. Called on
// disconnect; the removal is immediate and final.
func (r *RoomRegistry) Remove(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for projectID, room := range r.rooms {
		delete(room, sub)
		if len(room) == 0 {
			delete(r.rooms, projectID)
		}
	}
}

// Members returns a snapshot of the room's current subscribers.
func (r *RoomRegistry) Members(projectID string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[projectID]
	if len(room) == 0 {
		return nil
	}
	subs := make([]Subscriber, 0, len(room))
	for sub := range room {
		subs = append(subs, sub)
	}
	return subs
}

package realtime

import (
	"sort"
	"sync"
)

// Room holds state and a broadcaster for one room.
type Room[T any, E any] struct {
	ID    string
	State T
	hub   *Broadcaster[E]
}

// Hub returns the room's broadcaster.
func (r *Room[T, E]) Hub() *Broadcaster[E] {
	return r.hub
}

// RoomStore manages rooms and their broadcasters.
type RoomStore[T any, E any] struct {
	mu     sync.RWMutex
	rooms  map[string]*Room[T, E]
	buffer int
}

// NewRoomStore creates an empty room store. buffer sizes each room's
// subscriber channels.
func NewRoomStore[T any, E any](buffer int) *RoomStore[T, E] {
	return &RoomStore[T, E]{
		rooms:  make(map[string]*Room[T, E]),
		buffer: buffer,
	}
}

// Create adds a room with the given id and state, and a new Broadcaster.
// It reports false and leaves the store untouched when id is taken.
func (s *RoomStore[T, E]) Create(id string, state T) (*Room[T, E], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[id]; exists {
		return nil, false
	}
	r := &Room[T, E]{ID: id, State: state, hub: NewBroadcaster[E](s.buffer)}
	s.rooms[id] = r
	return r, true
}

// Get returns the room by ID if it exists.
func (s *RoomStore[T, E]) Get(id string) (*Room[T, E], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete removes the room and closes its subscribers. Unknown ids are ignored.
func (s *RoomStore[T, E]) Delete(id string) {
	s.mu.Lock()
	r, ok := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()
	if ok {
		r.hub.Close()
	}
}

// List returns all rooms ordered by id.
func (s *RoomStore[T, E]) List() []*Room[T, E] {
	s.mu.RLock()
	out := make([]*Room[T, E], 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *RoomStore[T, E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

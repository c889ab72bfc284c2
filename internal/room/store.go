package room

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"sync"

	"stickhero/internal/game"
	"stickhero/pkg/realtime"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeAttempts = 16

	spectatorBuffer = 64
)

var ErrNoRoomCode = errors.New("no free room code")

// RoomInfo is a lobby listing entry.
type RoomInfo struct {
	Code       string `json:"code"`
	Players    int    `json:"players"`
	MaxClients int    `json:"maxClients"`
}

// Store owns every live room. A room removes itself from the store when its
// last client leaves.
type Store struct {
	rooms    *realtime.RoomStore[*Room, []byte]
	defaults game.Config
	logger   *log.Logger

	mu  sync.Mutex // guards src
	src game.Source
}

func NewStore(defaults game.Config, src game.Source) *Store {
	if src == nil {
		src = game.NewSource()
	}
	return &Store{
		rooms:    realtime.NewRoomStore[*Room, []byte](spectatorBuffer),
		defaults: defaults,
		logger:   log.New(os.Stdout, "[rooms] ", log.LstdFlags),
		src:      src,
	}
}

// Defaults returns the config new rooms start from.
func (s *Store) Defaults() game.Config {
	return s.defaults
}

// CreateRoom starts a new room with cfg under a fresh code.
func (s *Store) CreateRoom(cfg game.Config) (*Room, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		s.mu.Lock()
		code := game.RandomString(s.src, codeLength, codeAlphabet)
		seed := uint64(s.src.IntN(math.MaxInt))
		s.mu.Unlock()

		if _, taken := s.rooms.Get(code); taken {
			continue
		}
		rm, err := New(code, cfg, Options{Source: game.NewSeededSource(seed)})
		if err != nil {
			return nil, err
		}
		entry, ok := s.rooms.Create(code, rm)
		if !ok {
			continue
		}
		rm.Spectators = entry.Hub()
		rm.OnEmpty = s.removeRoom
		go rm.Run()
		s.logger.Printf("created room %s mapLength=%d maxClients=%d", code, cfg.MapLength, cfg.MaxClients)
		return rm, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrNoRoomCode, codeAttempts)
}

func (s *Store) GetRoom(code string) (*Room, bool) {
	entry, ok := s.rooms.Get(code)
	if !ok {
		return nil, false
	}
	return entry.State, true
}

// Subscribe returns a channel of every frame the room broadcasts and a
// function to cancel the subscription.
func (s *Store) Subscribe(code string) (<-chan []byte, func(), bool) {
	entry, ok := s.rooms.Get(code)
	if !ok {
		return nil, nil, false
	}
	hub := entry.Hub()
	ch := hub.Subscribe()
	return ch, func() { hub.Unsubscribe(ch) }, true
}

func (s *Store) ListRooms() []RoomInfo {
	entries := s.rooms.List()
	out := make([]RoomInfo, 0, len(entries))
	for _, entry := range entries {
		out = append(out, RoomInfo{
			Code:       entry.ID,
			Players:    entry.State.NumClients(),
			MaxClients: entry.State.Config().MaxClients,
		})
	}
	return out
}

func (s *Store) Len() int {
	return s.rooms.Len()
}

func (s *Store) removeRoom(code string) {
	entry, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	s.rooms.Delete(code)
	entry.State.Stop()
	s.logger.Printf("disposed room %s", code)
}

// Close stops every room.
func (s *Store) Close() {
	for _, entry := range s.rooms.List() {
		s.rooms.Delete(entry.ID)
		entry.State.Stop()
	}
}

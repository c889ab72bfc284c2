package game

import (
	"fmt"
	"sort"
)

// Player tracks one participant's progress around the map.
type Player struct {
	ID         string
	Name       string
	Index      int
	StickSpeed float64
	Score      int
}

// JoinSpawnIndex draws the spawn index used when a player joins: [4, mapLength-4].
func JoinSpawnIndex(mapLength int, src Source) int {
	return spawnIndex(4, mapLength-4, mapLength, src)
}

// RespawnIndex draws the index used after a failed move or a reset: [2, mapLength-3].
func RespawnIndex(mapLength int, src Source) int {
	return spawnIndex(2, mapLength-3, mapLength, src)
}

// spawnIndex clamps [lo, hi] into the map. Maps too short for the band
// spawn on the middle segment.
func spawnIndex(lo, hi, mapLength int, src Source) int {
	if lo < 0 {
		lo = 0
	}
	if hi > mapLength-1 {
		hi = mapLength - 1
	}
	if hi < lo {
		return mapLength / 2
	}
	return intInRange(src, lo, hi)
}

// Registry owns the players of one room. It is not safe for concurrent use;
// the owning room serializes access.
type Registry struct {
	cfg     Config
	src     Source
	players map[string]*Player
}

func NewRegistry(cfg Config, src Source) *Registry {
	return &Registry{
		cfg:     cfg,
		src:     src,
		players: make(map[string]*Player),
	}
}

// AddPlayer creates a fresh player, replacing any existing entry for id.
func (r *Registry) AddPlayer(id, name string) Player {
	p := &Player{
		ID:         id,
		Name:       name,
		Index:      JoinSpawnIndex(r.cfg.MapLength, r.src),
		StickSpeed: r.cfg.StickSpeed,
	}
	r.players[id] = p
	return *p
}

// GetPlayer returns a copy of the player registered under id.
func (r *Registry) GetPlayer(id string) (Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// RemovePlayer is a no-op for unknown ids.
func (r *Registry) RemovePlayer(id string) {
	delete(r.players, id)
}

// ResetPlayer replaces the player with a fresh one keeping id and name.
func (r *Registry) ResetPlayer(id string) (Player, error) {
	old, ok := r.players[id]
	if !ok {
		return Player{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	p := &Player{
		ID:         id,
		Name:       old.Name,
		Index:      RespawnIndex(r.cfg.MapLength, r.src),
		StickSpeed: r.cfg.StickSpeed,
	}
	r.players[id] = p
	return *p, nil
}

// Update stores the state produced by ResolveMove.
func (r *Registry) Update(p Player) error {
	if _, ok := r.players[p.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, p.ID)
	}
	stored := p
	r.players[p.ID] = &stored
	return nil
}

// Players returns a snapshot ordered by id.
func (r *Registry) Players() []Player {
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) Len() int {
	return len(r.players)
}

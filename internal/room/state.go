package room

import (
	"stickhero/internal/game"
	"stickhero/internal/protocol"
)

// State is the replicated part of a room: the immutable map and the player
// registry. Every player mutation goes through State so that it is recorded
// as a change for the next state patch.
type State struct {
	Map      game.Map
	Registry *game.Registry
	changes  []protocol.PlayerChange
}

func newState(m game.Map, registry *game.Registry) *State {
	return &State{Map: m, Registry: registry}
}

func (s *State) addPlayer(id, name string) game.Player {
	p := s.Registry.AddPlayer(id, name)
	s.record(protocol.OpAdd, p)
	return p
}

func (s *State) updatePlayer(p game.Player) error {
	if err := s.Registry.Update(p); err != nil {
		return err
	}
	s.record(protocol.OpUpdate, p)
	return nil
}

func (s *State) resetPlayer(id string) (game.Player, error) {
	p, err := s.Registry.ResetPlayer(id)
	if err != nil {
		return game.Player{}, err
	}
	s.record(protocol.OpUpdate, p)
	return p, nil
}

func (s *State) removePlayer(id string) {
	if _, ok := s.Registry.GetPlayer(id); !ok {
		return
	}
	s.Registry.RemovePlayer(id)
	s.changes = append(s.changes, protocol.PlayerChange{Op: protocol.OpRemove, PlayerID: id})
}

func (s *State) record(op string, p game.Player) {
	snap := snapshotOf(p)
	s.changes = append(s.changes, protocol.PlayerChange{Op: op, PlayerID: p.ID, Player: &snap})
}

// takeChanges returns and clears the pending change batch.
func (s *State) takeChanges() []protocol.PlayerChange {
	out := s.changes
	s.changes = nil
	return out
}

func (s *State) snapshots() []protocol.PlayerSnapshot {
	players := s.Registry.Players()
	out := make([]protocol.PlayerSnapshot, 0, len(players))
	for _, p := range players {
		out = append(out, snapshotOf(p))
	}
	return out
}

func snapshotOf(p game.Player) protocol.PlayerSnapshot {
	return protocol.PlayerSnapshot{
		UserID:     p.ID,
		Name:       p.Name,
		Index:      p.Index,
		StickSpeed: p.StickSpeed,
		Score:      p.Score,
	}
}

func groundsOf(m game.Map) []protocol.Ground {
	out := make([]protocol.Ground, 0, len(m))
	for _, seg := range m {
		out = append(out, protocol.Ground{Index: seg.Index, Space: seg.Space, Width: seg.Width})
	}
	return out
}

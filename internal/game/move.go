package game

import (
	"fmt"
	"math"
)

// Outcome is the result kind of one hold-and-release.
type Outcome string

const (
	// OutcomeBreak: the stick fell short of the next segment.
	OutcomeBreak Outcome = "break"
	// OutcomeOverflow: the stick reached past the far edge of the next segment.
	OutcomeOverflow Outcome = "overflow"
	// OutcomeAdvance: the stick landed on the next segment.
	OutcomeAdvance Outcome = "advance"
)

// MoveResult carries the outcome and the player state after it was applied.
type MoveResult struct {
	Outcome     Outcome
	StickLength float64
	Player      Player
}

func (r MoveResult) Success() bool {
	return r.Outcome == OutcomeAdvance
}

// StickLength converts a hold duration into a reach, clamped to the maximum.
func StickLength(cfg Config, stickSpeed, dt float64) float64 {
	length := cfg.MinStickLength + stickSpeed*dt
	if length >= cfg.MaxStickLength {
		length = cfg.MaxStickLength
	}
	return length
}

// ReachInterval is the inclusive range of stick lengths that land on next
// when standing on now. Both ends are inset by the landing margin.
func ReachInterval(cfg Config, now, next GroundSegment) (lower, upper float64) {
	lower = float64(now.Space) + cfg.LandingMargin
	upper = float64(now.Space+next.Width) + cfg.LandingMargin
	return lower, upper
}

// ValidateDuration rejects hold durations that are not a physical hold time.
func ValidateDuration(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, dt)
	}
	return nil
}

// ResolveMove applies one completed hold of dt seconds to p. The only
// randomness is the respawn index after a failed move.
func ResolveMove(cfg Config, m Map, p Player, dt float64, src Source) (MoveResult, error) {
	if err := ValidateDuration(dt); err != nil {
		return MoveResult{}, err
	}
	now, ok := m.Segment(p.Index)
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: player %s stands on %d", ErrUnknownSegment, p.ID, p.Index)
	}
	nextIndex := m.Next(p.Index)
	next, _ := m.Segment(nextIndex)

	length := StickLength(cfg, p.StickSpeed, dt)
	lower, upper := ReachInterval(cfg, now, next)

	var outcome Outcome
	switch {
	case length < lower:
		outcome = OutcomeBreak
	case length > upper:
		outcome = OutcomeOverflow
	default:
		outcome = OutcomeAdvance
	}

	if outcome == OutcomeAdvance {
		p.Score++
		if p.Score%cfg.SpeedStep == 0 {
			p.StickSpeed += cfg.SpeedIncrement
		}
		p.Index = nextIndex
	} else {
		p.Score = 0
		p.Index = RespawnIndex(m.Len(), src)
	}

	return MoveResult{Outcome: outcome, StickLength: length, Player: p}, nil
}

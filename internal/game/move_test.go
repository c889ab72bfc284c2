package game

import (
	"errors"
	"math"
	"testing"
)

func scenarioPlayer() Player {
	return Player{ID: "p1", Name: "Alice", Index: 4, StickSpeed: 200, Score: 2}
}

func TestResolveMove_ScenarioBreak(t *testing.T) {
	cfg := DefaultConfig()
	m := uniformMap(10, 80, 150)
	res, err := ResolveMove(cfg, m, scenarioPlayer(), 0.5, &seqSource{vals: []int{3}})
	if err != nil {
		t.Fatalf("ResolveMove: %v", err)
	}
	if res.Outcome != OutcomeBreak {
		t.Fatalf("Outcome %q, want break", res.Outcome)
	}
	if res.StickLength != 100 {
		t.Errorf("StickLength %g, want 100", res.StickLength)
	}
	if res.Player.Score != 0 {
		t.Errorf("Score %d, want 0", res.Player.Score)
	}
	if res.Player.StickSpeed != 200 {
		t.Errorf("StickSpeed %g, want unchanged 200", res.Player.StickSpeed)
	}
	// band [2, 7], draw 3 -> 5
	if res.Player.Index != 5 {
		t.Errorf("Index %d, want 5", res.Player.Index)
	}
	if res.Success() {
		t.Error("break should not be a success")
	}
}

func TestResolveMove_ScenarioOverflow(t *testing.T) {
	cfg := DefaultConfig()
	m := uniformMap(10, 80, 150)
	res, err := ResolveMove(cfg, m, scenarioPlayer(), 1.5, &seqSource{vals: []int{0}})
	if err != nil {
		t.Fatalf("ResolveMove: %v", err)
	}
	if res.Outcome != OutcomeOverflow {
		t.Fatalf("Outcome %q, want overflow", res.Outcome)
	}
	if res.StickLength != 300 {
		t.Errorf("StickLength %g, want 300", res.StickLength)
	}
	if res.Player.Score != 0 || res.Player.Index != 2 {
		t.Errorf("player after overflow %+v, want score 0 index 2", res.Player)
	}
}

func TestResolveMove_ScenarioAdvance(t *testing.T) {
	cfg := DefaultConfig()
	m := uniformMap(10, 80, 150)
	res, err := ResolveMove(cfg, m, scenarioPlayer(), 1.0, NewSeededSource(1))
	if err != nil {
		t.Fatalf("ResolveMove: %v", err)
	}
	if res.Outcome != OutcomeAdvance || !res.Success() {
		t.Fatalf("Outcome %q, want advance", res.Outcome)
	}
	if res.StickLength != 200 {
		t.Errorf("StickLength %g, want 200", res.StickLength)
	}
	if res.Player.Index != 5 {
		t.Errorf("Index %d, want 5", res.Player.Index)
	}
	if res.Player.Score != 3 {
		t.Errorf("Score %d, want 3", res.Player.Score)
	}
}

func TestResolveMove_ScenarioClamp(t *testing.T) {
	cfg := DefaultConfig()
	m := uniformMap(10, 80, 150)
	res, err := ResolveMove(cfg, m, scenarioPlayer(), 10, &seqSource{vals: []int{0}})
	if err != nil {
		t.Fatalf("ResolveMove: %v", err)
	}
	if res.StickLength != 1000 {
		t.Errorf("StickLength %g, want clamped 1000", res.StickLength)
	}
	if res.Outcome != OutcomeOverflow {
		t.Errorf("Outcome %q, want overflow", res.Outcome)
	}

	// A wide enough landing makes the clamped length an advance.
	wide := uniformMap(10, 2000, 150)
	res, err = ResolveMove(cfg, wide, scenarioPlayer(), 10, &seqSource{vals: []int{0}})
	if err != nil {
		t.Fatalf("ResolveMove: %v", err)
	}
	if res.StickLength != 1000 || res.Outcome != OutcomeAdvance {
		t.Errorf("got %g/%q, want 1000/advance", res.StickLength, res.Outcome)
	}
}

func TestResolveMove_ScenarioSpeedUp(t *testing.T) {
	cfg := DefaultConfig()
	m := uniformMap(10, 80, 150)
	r := NewRegistry(cfg, NewSeededSource(2))
	p := r.AddPlayer("p1", "Alice")

	for i := 1; i <= 5; i++ {
		// 200*1.0 and later 250*0.8 both land at 200.
		dt := 200 / p.StickSpeed
		res, err := ResolveMove(cfg, m, p, dt, NewSeededSource(1))
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
		if res.Outcome != OutcomeAdvance {
			t.Fatalf("move %d: outcome %q, want advance", i, res.Outcome)
		}
		p = res.Player
	}
	if p.StickSpeed != 250 {
		t.Errorf("StickSpeed after 5 advances %g, want 250", p.StickSpeed)
	}
	if p.Score != 5 {
		t.Errorf("Score %d, want 5", p.Score)
	}
}

func TestResolveMove_BoundsInclusive(t *testing.T) {
	cfg := DefaultConfig()
	m := uniformMap(10, 80, 150)
	p := scenarioPlayer()
	p.StickSpeed = 1

	cases := []struct {
		dt   float64
		want Outcome
	}{
		{154, OutcomeBreak},
		{155, OutcomeAdvance},
		{235, OutcomeAdvance},
		{236, OutcomeOverflow},
	}
	for _, tc := range cases {
		res, err := ResolveMove(cfg, m, p, tc.dt, &seqSource{vals: []int{0}})
		if err != nil {
			t.Fatalf("dt=%g: %v", tc.dt, err)
		}
		if res.Outcome != tc.want {
			t.Errorf("dt=%g length=%g: outcome %q, want %q", tc.dt, res.StickLength, res.Outcome, tc.want)
		}
	}
}

func TestResolveMove_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	m, err := GenerateMap(cfg, NewSeededSource(11))
	if err != nil {
		t.Fatalf("GenerateMap: %v", err)
	}
	for _, dt := range []float64{0, 0.3, 0.77, 1.1, 1.6, 2.4, 4} {
		for idx := 0; idx < m.Len(); idx++ {
			p := Player{ID: "p", Index: idx, StickSpeed: 200, Score: 4}
			a, errA := ResolveMove(cfg, m, p, dt, NewSeededSource(1))
			b, errB := ResolveMove(cfg, m, p, dt, NewSeededSource(99))
			if errA != nil || errB != nil {
				t.Fatalf("errors: %v %v", errA, errB)
			}
			if a.Outcome != b.Outcome || a.StickLength != b.StickLength {
				t.Fatalf("dt=%g idx=%d: %q/%g vs %q/%g", dt, idx, a.Outcome, a.StickLength, b.Outcome, b.StickLength)
			}
			if a.Player.Score != b.Player.Score || a.Player.StickSpeed != b.Player.StickSpeed {
				t.Fatalf("dt=%g idx=%d: players differ %+v vs %+v", dt, idx, a.Player, b.Player)
			}
			if a.Outcome == OutcomeAdvance && a.Player.Index != b.Player.Index {
				t.Fatalf("advance index differs: %d vs %d", a.Player.Index, b.Player.Index)
			}
		}
	}
}

func TestResolveMove_RejectsBadDuration(t *testing.T) {
	cfg := DefaultConfig()
	m := uniformMap(10, 80, 150)
	p := scenarioPlayer()
	for _, dt := range []float64{-0.01, math.NaN(), math.Inf(1), math.Inf(-1)} {
		res, err := ResolveMove(cfg, m, p, dt, NewSeededSource(1))
		if !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("dt=%v: err %v, want ErrInvalidDuration", dt, err)
		}
		if res != (MoveResult{}) {
			t.Errorf("dt=%v: expected zero result, got %+v", dt, res)
		}
	}
}

func TestResolveMove_UnknownSegment(t *testing.T) {
	cfg := DefaultConfig()
	m := uniformMap(10, 80, 150)
	p := scenarioPlayer()
	p.Index = 42
	_, err := ResolveMove(cfg, m, p, 1, NewSeededSource(1))
	if !errors.Is(err, ErrUnknownSegment) {
		t.Fatalf("err %v, want ErrUnknownSegment", err)
	}
}

func TestResolveMove_IndexAlwaysValid(t *testing.T) {
	cfg := DefaultConfig()
	src := NewSeededSource(21)
	m, err := GenerateMap(cfg, src)
	if err != nil {
		t.Fatalf("GenerateMap: %v", err)
	}
	r := NewRegistry(cfg, src)
	p := r.AddPlayer("p1", "Alice")
	lastSpeed := p.StickSpeed
	wantSpeed := p.StickSpeed
	for i := 0; i < 2000; i++ {
		switch src.IntN(10) {
		case 0:
			p, err = r.ResetPlayer("p1")
			if err != nil {
				t.Fatalf("ResetPlayer: %v", err)
			}
			lastSpeed = p.StickSpeed
			wantSpeed = cfg.StickSpeed
		default:
			dt := float64(src.IntN(300)) / 100
			res, err := ResolveMove(cfg, m, p, dt, src)
			if err != nil {
				t.Fatalf("ResolveMove: %v", err)
			}
			p = res.Player
			if err := r.Update(p); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if res.Outcome == OutcomeAdvance && p.Score%cfg.SpeedStep == 0 {
				wantSpeed += cfg.SpeedIncrement
			}
			if p.StickSpeed < lastSpeed {
				t.Fatalf("stick speed decreased from %g to %g", lastSpeed, p.StickSpeed)
			}
			lastSpeed = p.StickSpeed
		}
		if _, ok := m.Segment(p.Index); !ok {
			t.Fatalf("step %d: index %d is not a map segment", i, p.Index)
		}
		if p.StickSpeed != wantSpeed {
			t.Fatalf("step %d: speed %g, want %g", i, p.StickSpeed, wantSpeed)
		}
	}
}

package game

import (
	"errors"
	"fmt"
	"math"
)

// Defaults for a newly created room.
const (
	DefaultMapLength      = 10
	DefaultMinGroundWidth = 50
	DefaultMaxGroundWidth = 140
	DefaultMinSpace       = 150
	DefaultMaxSpace       = 400
	DefaultMinStickLength = 0
	DefaultMaxStickLength = 1000
	DefaultStickSpeed     = 200
	DefaultSpeedIncrement = 50
	DefaultSpeedStep      = 5
	DefaultLandingMargin  = 5
	DefaultMaxClients     = 10
)

// Upper bounds accepted by Validate.
const (
	MaxMapLength   = 1000
	MaxSegmentSize = 100_000
	MaxClientLimit = 1000
)

var (
	ErrInvalidConfig   = errors.New("invalid room config")
	ErrInvalidDuration = errors.New("invalid hold duration")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrUnknownSegment  = errors.New("unknown ground segment")
)

// Config is fixed for the lifetime of a room.
type Config struct {
	MapLength      int
	MinGroundWidth int
	MaxGroundWidth int
	MinSpace       int
	MaxSpace       int
	MinStickLength float64
	MaxStickLength float64
	StickSpeed     float64
	SpeedIncrement float64
	SpeedStep      int
	LandingMargin  float64
	MaxClients     int
}

func DefaultConfig() Config {
	return Config{
		MapLength:      DefaultMapLength,
		MinGroundWidth: DefaultMinGroundWidth,
		MaxGroundWidth: DefaultMaxGroundWidth,
		MinSpace:       DefaultMinSpace,
		MaxSpace:       DefaultMaxSpace,
		MinStickLength: DefaultMinStickLength,
		MaxStickLength: DefaultMaxStickLength,
		StickSpeed:     DefaultStickSpeed,
		SpeedIncrement: DefaultSpeedIncrement,
		SpeedStep:      DefaultSpeedStep,
		LandingMargin:  DefaultLandingMargin,
		MaxClients:     DefaultMaxClients,
	}
}

// Validate reports the first inconsistency in c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	floats := []struct {
		name string
		v    float64
	}{
		{"minStickLength", c.MinStickLength},
		{"maxStickLength", c.MaxStickLength},
		{"stickSpeed", c.StickSpeed},
		{"speedIncrement", c.SpeedIncrement},
		{"landingMargin", c.LandingMargin},
	}
	for _, f := range floats {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %g", ErrInvalidConfig, f.name, f.v)
		}
	}

	switch {
	case c.MapLength <= 0 || c.MapLength > MaxMapLength:
		return fmt.Errorf("%w: mapLength must be in [1, %d], got %d", ErrInvalidConfig, MaxMapLength, c.MapLength)
	case c.MinGroundWidth < 0 || c.MaxGroundWidth < c.MinGroundWidth || c.MaxGroundWidth > MaxSegmentSize:
		return fmt.Errorf("%w: ground width range [%d, %d]", ErrInvalidConfig, c.MinGroundWidth, c.MaxGroundWidth)
	case c.MinSpace < 0 || c.MaxSpace < c.MinSpace || c.MaxSpace > MaxSegmentSize:
		return fmt.Errorf("%w: space range [%d, %d]", ErrInvalidConfig, c.MinSpace, c.MaxSpace)
	case c.MinStickLength < 0 || c.MaxStickLength < c.MinStickLength:
		return fmt.Errorf("%w: stick length range [%g, %g]", ErrInvalidConfig, c.MinStickLength, c.MaxStickLength)
	case c.StickSpeed < 0:
		return fmt.Errorf("%w: stickSpeed must not be negative, got %g", ErrInvalidConfig, c.StickSpeed)
	case c.SpeedIncrement < 0:
		return fmt.Errorf("%w: speed increment must not be negative, got %g", ErrInvalidConfig, c.SpeedIncrement)
	case c.SpeedStep <= 0:
		return fmt.Errorf("%w: speed step must be positive, got %d", ErrInvalidConfig, c.SpeedStep)
	case c.LandingMargin < 0:
		return fmt.Errorf("%w: landing margin must not be negative, got %g", ErrInvalidConfig, c.LandingMargin)
	case c.MaxClients <= 0 || c.MaxClients > MaxClientLimit:
		return fmt.Errorf("%w: maxClients must be in [1, %d], got %d", ErrInvalidConfig, MaxClientLimit, c.MaxClients)
	}
	return nil
}

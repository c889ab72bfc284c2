package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"stickhero/internal/game"
)

// Config is the process configuration.
type Config struct {
	Addr    string
	BaseURL string
	Room    game.Config // defaults for newly created rooms
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv without touching the filesystem.
func FromEnv(getenv func(string) string) (Config, error) {
	port := strings.TrimSpace(getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	cfg := Config{
		Addr:    ":" + port,
		BaseURL: strings.TrimRight(strings.TrimSpace(getenv("BASE_URL")), "/"),
		Room:    game.DefaultConfig(),
	}

	p := parser{getenv: getenv}
	p.readInt("STICKHERO_MAP_LENGTH", &cfg.Room.MapLength)
	p.readInt("STICKHERO_MIN_GROUND_WIDTH", &cfg.Room.MinGroundWidth)
	p.readInt("STICKHERO_MAX_GROUND_WIDTH", &cfg.Room.MaxGroundWidth)
	p.readInt("STICKHERO_MIN_SPACE", &cfg.Room.MinSpace)
	p.readInt("STICKHERO_MAX_SPACE", &cfg.Room.MaxSpace)
	p.readFloat("STICKHERO_MIN_STICK_LENGTH", &cfg.Room.MinStickLength)
	p.readFloat("STICKHERO_MAX_STICK_LENGTH", &cfg.Room.MaxStickLength)
	p.readFloat("STICKHERO_STICK_SPEED", &cfg.Room.StickSpeed)
	p.readFloat("STICKHERO_SPEED_INCREMENT", &cfg.Room.SpeedIncrement)
	p.readInt("STICKHERO_SPEED_STEP", &cfg.Room.SpeedStep)
	p.readFloat("STICKHERO_LANDING_MARGIN", &cfg.Room.LandingMargin)
	p.readInt("STICKHERO_MAX_CLIENTS", &cfg.Room.MaxClients)
	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.Room.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parser keeps the first error so callers can read all keys in a row.
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) readInt(key string, dst *int) {
	raw := strings.TrimSpace(p.getenv(key))
	if raw == "" || p.err != nil {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = v
}

func (p *parser) readFloat(key string, dst *float64) {
	raw := strings.TrimSpace(p.getenv(key))
	if raw == "" || p.err != nil {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = v
}

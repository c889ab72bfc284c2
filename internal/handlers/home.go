package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"stickhero/internal/game"
	"stickhero/internal/room"
	"stickhero/internal/viewmodel"
	"stickhero/views/pages"
)

type HomeHandler struct {
	store   *room.Store
	baseURL string
}

func NewHomeHandler(store *room.Store, baseURL string) *HomeHandler {
	return &HomeHandler{store: store, baseURL: baseURL}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/healthz", h.health)
	r.Get("/rooms", h.listRooms)
	r.Post("/rooms", h.createRoom)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.LobbyPage(h.lobbyPage(r, "")))
}

func (h *HomeHandler) lobbyPage(r *http.Request, errMsg string) viewmodel.LobbyPage {
	defaults := h.store.Defaults()
	infos := h.store.ListRooms()
	rooms := make([]viewmodel.RoomSummary, 0, len(infos))
	for _, info := range infos {
		rooms = append(rooms, viewmodel.RoomSummary{
			Code:       info.Code,
			Players:    info.Players,
			MaxClients: info.MaxClients,
			JoinURL:    buildRoomURL(r, h.baseURL, info.Code, true) + "/ws",
			StreamURL:  "/rooms/" + info.Code + "/stream",
			Full:       info.Players >= info.MaxClients,
		})
	}
	return viewmodel.LobbyPage{
		Title: "Stick Hero",
		Rooms: rooms,
		Defaults: viewmodel.RoomDefaults{
			MapLength:      defaults.MapLength,
			MaxClients:     defaults.MaxClients,
			StickSpeed:     defaults.StickSpeed,
			MaxStickLength: defaults.MaxStickLength,
			SpeedIncrement: defaults.SpeedIncrement,
			SpeedStep:      defaults.SpeedStep,
			LandingMargin:  defaults.LandingMargin,
		},
		Error: errMsg,
	}
}

func (h *HomeHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  h.store.Len(),
	})
}

func (h *HomeHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ListRooms())
}

func (h *HomeHandler) createRoom(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	cfg, err := roomConfigFromForm(r, h.store.Defaults())
	if err != nil {
		h.createFailed(w, r, http.StatusBadRequest, err)
		return
	}
	rm, err := h.store.CreateRoom(cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, game.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		h.createFailed(w, r, status, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, map[string]string{
			"code":      rm.Code,
			"joinUrl":   buildRoomURL(r, h.baseURL, rm.Code, true) + "/ws",
			"streamUrl": buildRoomURL(r, h.baseURL, rm.Code, false) + "/stream",
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *HomeHandler) createFailed(w http.ResponseWriter, r *http.Request, status int, err error) {
	log.Printf("create room failed status=%d err=%v", status, err)
	if wantsJSON(r) {
		writeError(w, status, err.Error())
		return
	}
	w.WriteHeader(status)
	render(w, r, pages.LobbyPage(h.lobbyPage(r, err.Error())))
}

var errBadField = errors.New("malformed field")

// roomConfigFromForm overrides defaults with any form values present.
func roomConfigFromForm(r *http.Request, defaults game.Config) (game.Config, error) {
	cfg := defaults
	var err error
	readInt := func(key string, dst *int) {
		if err != nil {
			return
		}
		*dst, err = parseInt(r.FormValue(key), *dst)
		if err != nil {
			err = fmt.Errorf("%w: %s", errBadField, key)
		}
	}
	readFloat := func(key string, dst *float64) {
		if err != nil {
			return
		}
		*dst, err = parseFloat(r.FormValue(key), *dst)
		if err != nil {
			err = fmt.Errorf("%w: %s", errBadField, key)
		}
	}
	readInt("mapLength", &cfg.MapLength)
	readInt("minGroundWidth", &cfg.MinGroundWidth)
	readInt("maxGroundWidth", &cfg.MaxGroundWidth)
	readInt("minSpace", &cfg.MinSpace)
	readInt("maxSpace", &cfg.MaxSpace)
	readFloat("minStickLength", &cfg.MinStickLength)
	readFloat("maxStickLength", &cfg.MaxStickLength)
	readFloat("stickSpeed", &cfg.StickSpeed)
	readFloat("speedIncrement", &cfg.SpeedIncrement)
	readInt("speedStep", &cfg.SpeedStep)
	readFloat("landingMargin", &cfg.LandingMargin)
	readInt("maxClients", &cfg.MaxClients)
	if err != nil {
		return game.Config{}, err
	}
	return cfg, cfg.Validate()
}

func parseInt(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func parseFloat(value string, fallback float64) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}

// buildRoomURL returns the absolute URL of a room, with a ws scheme when
// websocket is set.
func buildRoomURL(r *http.Request, baseURL, code string, websocket bool) string {
	base := baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	if websocket {
		switch {
		case strings.HasPrefix(base, "https://"):
			base = "wss://" + strings.TrimPrefix(base, "https://")
		case strings.HasPrefix(base, "http://"):
			base = "ws://" + strings.TrimPrefix(base, "http://")
		}
	}
	return base + "/rooms/" + code
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"stickhero/internal/game"
	"stickhero/internal/protocol"
	"stickhero/internal/room"
	"stickhero/internal/wsconn"
)

const (
	joinTimeout       = 5 * time.Second
	keepAliveInterval = 25 * time.Second
)

type GameHandler struct {
	store    *room.Store
	upgrader websocket.Upgrader
}

func NewGameHandler(store *room.Store) *GameHandler {
	return &GameHandler{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients are served from other origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes mounts the short request/response routes.
func (h *GameHandler) RegisterRoutes(r chi.Router) {
	r.Get("/rooms/{code}", h.roomSummary)
}

// RegisterStreamRoutes mounts the long-lived routes, which must not sit
// behind a request timeout.
func (h *GameHandler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/rooms/{code}/ws", h.join)
	r.Get("/rooms/{code}/stream", h.stream)
}

type configView struct {
	MapLength      int     `json:"mapLength"`
	MinGroundWidth int     `json:"minGroundWidth"`
	MaxGroundWidth int     `json:"maxGroundWidth"`
	MinSpace       int     `json:"minSpace"`
	MaxSpace       int     `json:"maxSpace"`
	MinStickLength float64 `json:"minStickLength"`
	MaxStickLength float64 `json:"maxStickLength"`
	StickSpeed     float64 `json:"stickSpeed"`
	MaxClients     int     `json:"maxClients"`
}

type roomView struct {
	Code    string                    `json:"code"`
	Clients int                       `json:"clients"`
	Config  configView                `json:"config"`
	Map     []protocol.Ground         `json:"map"`
	Players []protocol.PlayerSnapshot `json:"players"`
}

func toRoomView(s room.Summary) roomView {
	return roomView{
		Code:    s.Code,
		Clients: s.NumClients,
		Config:  toConfigView(s.Config),
		Map:     s.Map,
		Players: s.Players,
	}
}

func toConfigView(c game.Config) configView {
	return configView{
		MapLength:      c.MapLength,
		MinGroundWidth: c.MinGroundWidth,
		MaxGroundWidth: c.MaxGroundWidth,
		MinSpace:       c.MinSpace,
		MaxSpace:       c.MaxSpace,
		MinStickLength: c.MinStickLength,
		MaxStickLength: c.MaxStickLength,
		StickSpeed:     c.StickSpeed,
		MaxClients:     c.MaxClients,
	}
}

func (h *GameHandler) roomSummary(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	rm, ok := h.store.GetRoom(code)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	summary, err := rm.Inspect(r.Context())
	if err != nil {
		writeError(w, http.StatusGone, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toRoomView(summary))
}

func (h *GameHandler) join(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	rm, ok := h.store.GetRoom(code)
	if !ok {
		http.NotFound(w, r)
		return
	}
	opts := protocol.JoinOptions{
		UserID: strings.TrimSpace(r.URL.Query().Get("userId")),
		Token:  r.URL.Query().Get("token"),
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade room=%s err=%v", code, err)
		return
	}
	client := wsconn.New(ws)
	go client.WritePump()

	clientID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	playerID, err := rm.Join(ctx, clientID, opts, client)
	cancel()
	if err != nil {
		if room.IsRejected(err) {
			log.Printf("join rejected room=%s client=%s err=%v", code, clientID, err)
		} else {
			log.Printf("join failed room=%s client=%s err=%v", code, clientID, err)
		}
		// The room may still accept a join that timed out here.
		rm.Leave(clientID)
		client.Reject(closeCode(err), err.Error())
		return
	}
	log.Printf("joined room=%s client=%s player=%s", code, clientID, playerID)

	err = client.ReadPump(func(b []byte) {
		rm.Deliver(clientID, b)
	})
	rm.Leave(clientID)
	if err != nil && !wsconn.IsNormalClose(err) {
		log.Printf("ws read room=%s client=%s err=%v", code, clientID, err)
	}
	log.Printf("left room=%s client=%s player=%s", code, clientID, playerID)
}

func closeCode(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomFull):
		return websocket.CloseTryAgainLater
	case errors.Is(err, room.ErrAlreadyJoined):
		return websocket.ClosePolicyViolation
	default:
		return websocket.CloseGoingAway
	}
}

// stream relays every frame the room broadcasts as server-sent events,
// starting with a summary of the room.
func (h *GameHandler) stream(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	rm, ok := h.store.GetRoom(code)
	if !ok {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	frames, unsubscribe, ok := h.store.Subscribe(code)
	if !ok {
		http.NotFound(w, r)
		return
	}
	defer unsubscribe()

	summary, err := rm.Inspect(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	b, _ := json.Marshal(toRoomView(summary))
	writeSSE(w, "summary", string(b))
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, open := <-frames:
			if !open {
				writeSSE(w, "closed", code)
				flusher.Flush()
				return
			}
			env, err := protocol.DecodeEnvelope(frame)
			if err != nil {
				continue
			}
			writeSSE(w, env.T, string(frame))
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

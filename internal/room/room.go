package room

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"stickhero/internal/game"
	"stickhero/internal/protocol"
	"stickhero/pkg/realtime"
)

const inboxSize = 256

// Room is one authoritative game session. All commands go through Inbox and
// are handled one at a time by Run, which is the only goroutine touching
// the state and sessions.
type Room struct {
	Inbox chan any

	Code       string
	OnEmpty    func(code string)             // called when the last client leaves
	Spectators *realtime.Broadcaster[[]byte] // receives every broadcast frame

	cfg      game.Config
	src      game.Source
	state    *State
	sessions map[string]*session
	byPlayer map[string]string
	logger   *log.Logger
	now      func() time.Time

	clients  atomic.Int32
	quit     chan struct{}
	stopOnce sync.Once
}

// Options override a room's collaborators. Zero values pick the defaults.
type Options struct {
	Source game.Source
	Logger *log.Logger
	Now    func() time.Time
}

// Summary is a read-only view of a room.
type Summary struct {
	Code       string
	Config     game.Config
	Map        []protocol.Ground
	Players    []protocol.PlayerSnapshot
	NumClients int
}

// New validates cfg and generates the room's map. The room does nothing
// until Run is started.
func New(code string, cfg game.Config, opts Options) (*Room, error) {
	src := opts.Source
	if src == nil {
		src = game.NewSource()
	}
	m, err := game.GenerateMap(cfg, src)
	if err != nil {
		return nil, fmt.Errorf("create room %s: %w", code, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[room "+code+"] ", log.LstdFlags)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Room{
		Inbox:    make(chan any, inboxSize),
		Code:     code,
		cfg:      cfg,
		src:      src,
		state:    newState(m, game.NewRegistry(cfg, src)),
		sessions: make(map[string]*session),
		byPlayer: make(map[string]string),
		logger:   logger,
		now:      now,
		quit:     make(chan struct{}),
	}, nil
}

func (r *Room) Config() game.Config {
	return r.cfg
}

// NumClients returns the current number of connected clients.
func (r *Room) NumClients() int {
	return int(r.clients.Load())
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
	})
}

func (r *Room) Done() <-chan struct{} {
	return r.quit
}

func (r *Room) Run() {
	defer r.closeAll()
	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		}
	}
}

// Submit queues cmd. It reports false once the room has stopped.
func (r *Room) Submit(cmd any) bool {
	select {
	case <-r.quit:
		return false
	default:
	}
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

// Join registers a connection and waits for the room to accept it.
func (r *Room) Join(ctx context.Context, clientID string, opts protocol.JoinOptions, conn Conn) (string, error) {
	reply := make(chan JoinResult, 1)
	if !r.Submit(Join{ClientID: clientID, Options: opts, Conn: conn, Reply: reply}) {
		return "", ErrRoomClosed
	}
	select {
	case res := <-reply:
		return res.PlayerID, res.Err
	case <-r.quit:
		return "", ErrRoomClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Room) Leave(clientID string) {
	r.Submit(Leave{ClientID: clientID})
}

func (r *Room) Deliver(clientID string, data []byte) {
	r.Submit(Message{ClientID: clientID, Data: data})
}

func (r *Room) Inspect(ctx context.Context) (Summary, error) {
	reply := make(chan Summary, 1)
	if !r.Submit(Inspect{Reply: reply}) {
		return Summary{}, ErrRoomClosed
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.quit:
		return Summary{}, ErrRoomClosed
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		res := r.handleJoin(c)
		if c.Reply != nil {
			c.Reply <- res
		}
	case Message:
		r.handleMessage(c)
	case Leave:
		r.dropClient(c.ClientID, nil)
	case Inspect:
		if c.Reply != nil {
			c.Reply <- r.summary()
		}
	default:
		r.logger.Printf("ignoring unknown command %T", cmd)
	}
	r.flush()
}

func (r *Room) handleJoin(c Join) JoinResult {
	if _, ok := r.sessions[c.ClientID]; ok {
		return JoinResult{Err: fmt.Errorf("%w: client %s", ErrAlreadyJoined, c.ClientID)}
	}
	if len(r.sessions) >= r.cfg.MaxClients {
		return JoinResult{Err: fmt.Errorf("%w: %d clients", ErrRoomFull, len(r.sessions))}
	}
	playerID := c.Options.UserID
	if playerID == "" {
		playerID = c.ClientID
	}
	if _, ok := r.byPlayer[playerID]; ok {
		return JoinResult{Err: fmt.Errorf("%w: player %s", ErrAlreadyJoined, playerID)}
	}
	// Token verification is not implemented; only its presence is logged.
	r.logger.Printf("join client=%s player=%s token=%t", c.ClientID, playerID, c.Options.Token != "")

	sess := &session{
		clientID: c.ClientID,
		playerID: playerID,
		conn:     c.Conn,
		joinedAt: r.now(),
	}
	r.sessions[c.ClientID] = sess
	r.byPlayer[playerID] = c.ClientID
	r.clients.Add(1)

	p := r.state.addPlayer(playerID, game.RandomName(r.src))
	hello := protocol.Init{
		Map: groundsOf(r.state.Map),
		Config: protocol.GameConfig{
			MinStickLength: r.cfg.MinStickLength,
			MaxStickLength: r.cfg.MaxStickLength,
			MapLength:      r.cfg.MapLength,
		},
		Self:    snapshotOf(p),
		Players: r.state.snapshots(),
	}
	if err := r.send(sess, protocol.MsgInit, hello); err != nil {
		r.dropClient(c.ClientID, err)
		return JoinResult{Err: err}
	}
	return JoinResult{PlayerID: playerID}
}

func (r *Room) handleMessage(c Message) {
	sess, ok := r.sessions[c.ClientID]
	if !ok {
		r.logger.Printf("message from unknown client=%s dropped", c.ClientID)
		return
	}
	env, err := protocol.DecodeEnvelope(c.Data)
	if err != nil {
		r.logger.Printf("malformed frame from client=%s: %v", c.ClientID, err)
		return
	}
	switch env.T {
	case protocol.MsgBeginHold:
		r.handleBeginHold(sess)
	case protocol.MsgEndHold:
		msg, err := protocol.DecodePayload[protocol.EndHold](env)
		if err != nil {
			r.logger.Printf("rejecting endHold from player=%s: %v", sess.playerID, err)
			return
		}
		r.handleEndHold(sess, msg)
	case protocol.MsgPlayAgain:
		r.handlePlayAgain(sess)
	default:
		r.logger.Printf("unknown message type %q from player=%s", env.T, sess.playerID)
	}
}

func (r *Room) handleBeginHold(sess *session) {
	sess.holdStart = r.now()
	r.broadcast(protocol.MsgPeerBeginHold, protocol.PeerHold{PlayerID: sess.playerID}, sess.clientID)
}

func (r *Room) handleEndHold(sess *session, msg protocol.EndHold) {
	dt, err := r.holdDuration(sess, msg)
	if err != nil {
		r.logger.Printf("rejecting endHold from player=%s: %v", sess.playerID, err)
		return
	}
	sess.holdStart = time.Time{}

	p, ok := r.state.Registry.GetPlayer(sess.playerID)
	if !ok {
		r.logger.Printf("endHold for absent player=%s ignored", sess.playerID)
		return
	}
	res, err := game.ResolveMove(r.cfg, r.state.Map, p, dt, r.src)
	if err != nil {
		r.logger.Printf("rejecting endHold from player=%s: %v", sess.playerID, err)
		return
	}
	if err := r.state.updatePlayer(res.Player); err != nil {
		r.logger.Printf("storing move for player=%s: %v", sess.playerID, err)
		return
	}

	r.broadcast(protocol.MsgPeerEndHold, protocol.PeerHold{PlayerID: sess.playerID}, sess.clientID)
	r.broadcast(protocol.MsgMoveResult, protocol.MoveResult{
		Success:     res.Success(),
		OutcomeKind: string(res.Outcome),
		PlayerID:    sess.playerID,
		StickLength: res.StickLength,
		Player:      snapshotOf(res.Player),
	}, "")
}

// holdDuration prefers the client's measurement and falls back to the time
// since beginHold when the client sent none.
func (r *Room) holdDuration(sess *session, msg protocol.EndHold) (float64, error) {
	if msg.HoldDurationSeconds != nil {
		dt := *msg.HoldDurationSeconds
		return dt, game.ValidateDuration(dt)
	}
	if !sess.holding() {
		return 0, fmt.Errorf("%w: no duration and no hold in progress", game.ErrInvalidDuration)
	}
	return r.now().Sub(sess.holdStart).Seconds(), nil
}

func (r *Room) handlePlayAgain(sess *session) {
	p, err := r.state.resetPlayer(sess.playerID)
	if err != nil {
		r.logger.Printf("playAgain for player=%s: %v", sess.playerID, err)
		return
	}
	sess.holdStart = time.Time{}
	r.broadcast(protocol.MsgPlayAgainResult, snapshotOf(p), "")
}

// dropClient removes a session and its player. cause is nil for a normal leave.
func (r *Room) dropClient(clientID string, cause error) {
	sess, ok := r.sessions[clientID]
	if !ok {
		return
	}
	if cause != nil {
		r.logger.Printf("dropping client=%s player=%s: %v", clientID, sess.playerID, cause)
	} else {
		r.logger.Printf("leave client=%s player=%s after %s", clientID, sess.playerID, r.now().Sub(sess.joinedAt).Round(time.Second))
	}
	delete(r.sessions, clientID)
	delete(r.byPlayer, sess.playerID)
	r.clients.Add(-1)
	r.state.removePlayer(sess.playerID)
	_ = sess.conn.Close()

	if len(r.sessions) == 0 && r.OnEmpty != nil {
		r.OnEmpty(r.Code)
	}
}

// flush broadcasts pending player changes as state patches. Clients dropped
// while broadcasting add changes of their own, hence the loop.
func (r *Room) flush() {
	for changes := r.state.takeChanges(); len(changes) > 0; changes = r.state.takeChanges() {
		r.broadcast(protocol.MsgStatePatch, protocol.StatePatch{Changes: changes}, "")
	}
}

func (r *Room) send(sess *session, t string, payload any) error {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}
	return sess.conn.Send(b)
}

// broadcast sends to every client except the one with id except (if any).
func (r *Room) broadcast(t string, payload any, except string) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		r.logger.Printf("encode %s: %v", t, err)
		return
	}
	if r.Spectators != nil {
		r.Spectators.Publish(b)
	}

	type failure struct {
		id  string
		err error
	}
	var failed []failure
	for id, sess := range r.sessions {
		if id == except {
			continue
		}
		if err := sess.conn.Send(b); err != nil {
			failed = append(failed, failure{id, err})
		}
	}
	for _, f := range failed {
		r.dropClient(f.id, f.err)
	}
}

func (r *Room) summary() Summary {
	return Summary{
		Code:       r.Code,
		Config:     r.cfg,
		Map:        groundsOf(r.state.Map),
		Players:    r.state.snapshots(),
		NumClients: len(r.sessions),
	}
}

func (r *Room) closeAll() {
	for id, sess := range r.sessions {
		_ = sess.conn.Close()
		delete(r.sessions, id)
	}
	r.clients.Store(0)
}

// IsRejected reports whether err is a join refusal rather than a transport failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRoomFull) || errors.Is(err, ErrAlreadyJoined)
}

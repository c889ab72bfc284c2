package room

import (
	"errors"

	"stickhero/internal/protocol"
)

var (
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyJoined = errors.New("player already joined")
	ErrRoomClosed    = errors.New("room closed")
)

// Conn is the room's view of one client connection.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Join: issued once per connection. Reply must be buffered.
type Join struct {
	ClientID string
	Options  protocol.JoinOptions
	Conn     Conn
	Reply    chan<- JoinResult
}

type JoinResult struct {
	PlayerID string
	Err      error
}

// Message: one raw frame from a joined client.
type Message struct {
	ClientID string
	Data     []byte
}

// Leave: issued on disconnect
type Leave struct {
	ClientID string
}

// Inspect asks the room for a read-only summary. Reply must be buffered.
type Inspect struct {
	Reply chan<- Summary
}

package protocol

import (
	"encoding/json"
)

// Client to server.
const (
	MsgBeginHold = "beginHold"
	MsgEndHold   = "endHold"
	MsgPlayAgain = "playAgain"
)

// Server to client.
const (
	MsgInit            = "init"
	MsgPeerBeginHold   = "peerBeginHold"
	MsgPeerEndHold     = "peerEndHold"
	MsgMoveResult      = "moveResult"
	MsgPlayAgainResult = "playAgainResult"
	MsgStatePatch      = "statePatch"
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}

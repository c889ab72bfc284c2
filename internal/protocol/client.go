package protocol

// JoinOptions arrive as query parameters on the WebSocket upgrade.
type JoinOptions struct {
	UserID string `json:"userId,omitempty"`
	Token  string `json:"token,omitempty"`
}

type BeginHold struct{}

// EndHold carries the client-measured hold time. A nil duration asks the
// server to use the time elapsed since beginHold.
type EndHold struct {
	HoldDurationSeconds *float64 `json:"holdDurationSeconds"`
}

type PlayAgain struct{}

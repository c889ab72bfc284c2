package protocol

type Ground struct {
	Index int `json:"index"`
	Space int `json:"space"`
	Width int `json:"width"`
}

type GameConfig struct {
	MinStickLength float64 `json:"minStickLength"`
	MaxStickLength float64 `json:"maxStickLength"`
	MapLength      int     `json:"mapLength"`
}

type PlayerSnapshot struct {
	UserID     string  `json:"userId"`
	Name       string  `json:"name"`
	Index      int     `json:"index"`
	StickSpeed float64 `json:"speedStick"`
	Score      int     `json:"score"`
}

type Init struct {
	Map     []Ground         `json:"map"`
	Config  GameConfig       `json:"config"`
	Self    PlayerSnapshot   `json:"self"`
	Players []PlayerSnapshot `json:"players"`
}

type PeerHold struct {
	PlayerID string `json:"playerId"`
}

type MoveResult struct {
	Success     bool           `json:"success"`
	OutcomeKind string         `json:"outcomeKind"`
	PlayerID    string         `json:"playerId"`
	StickLength float64        `json:"stickLength"`
	Player      PlayerSnapshot `json:"player"`
}

const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
)

type PlayerChange struct {
	Op       string          `json:"op"`
	PlayerID string          `json:"playerId"`
	Player   *PlayerSnapshot `json:"player,omitempty"`
}

type StatePatch struct {
	Changes []PlayerChange `json:"changes"`
}

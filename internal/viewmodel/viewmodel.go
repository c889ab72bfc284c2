package viewmodel

// LobbyPage holds data for the lobby template.
type LobbyPage struct {
	Title    string
	Rooms    []RoomSummary
	Defaults RoomDefaults
	Error    string
}

// RoomSummary is one row of the lobby's room list.
type RoomSummary struct {
	Code       string
	Players    int
	MaxClients int
	JoinURL    string
	StreamURL  string
	Full       bool
}

// RoomDefaults pre-fills the create-room form.
type RoomDefaults struct {
	MapLength      int
	MaxClients     int
	StickSpeed     float64
	MaxStickLength float64
	SpeedIncrement float64
	SpeedStep      int
	LandingMargin  float64
}

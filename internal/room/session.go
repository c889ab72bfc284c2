package room

import "time"

// session is the per-connection context, created on join and dropped on leave.
type session struct {
	clientID  string
	playerID  string
	conn      Conn
	joinedAt  time.Time
	holdStart time.Time
}

func (s *session) holding() bool {
	return !s.holdStart.IsZero()
}

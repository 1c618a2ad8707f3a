package session

import "time"

// Session represents one logged-in portal visitor.
// The token is opaque; callers must not parse it.
type Session struct {
	Token     string    `json:"token"`
	Owner     string    `json:"owner"`      // label only, never verified
	CreatedAt time.Time `json:"created_at"`
}

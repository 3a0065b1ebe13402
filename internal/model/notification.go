package model

import "time"

// Notification is addressed to a single user, or to everyone when UserID is
// the broadcast marker "all".
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

const BroadcastUserID = "all"

func (n *Notification) Clone() *Notification {
	out := *n
	return &out
}

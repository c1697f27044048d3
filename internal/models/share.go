package models

import "time"

// ShareLink maps an opaque token to the user whose calendar it exposes.
type ShareLink struct {
	Token     string     `json:"token"`
	UserID    int64      `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the link still resolves.
func (l ShareLink) Active() bool {
	return l.RevokedAt == nil
}

// EntryEvent is pushed to live share viewers when an entry changes.
type EntryEvent struct {
	Type  string `json:"type"`
	Date  string `json:"date"`
	Habit string `json:"habit"`
	Value int    `json:"value"`
}

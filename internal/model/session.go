package model

import "time"

// Session is a server-side login record.
//
// It holds a reference to the canonical user (UserID), not a copy of the user.
// Every request resolves the user fresh from the store, so a session can never
// go stale relative to the user's reports.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at time now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

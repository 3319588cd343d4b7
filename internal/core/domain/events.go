package domain

import "time"

// TokenRevokedEvent represents the payload for sessions.token.revoked messages.
type TokenRevokedEvent struct {
	EventID   string
	JTI       string
	Subject   string
	Reason    string
	RevokedAt time.Time
	ExpiresAt time.Time
}

// SweepCompletedEvent represents the payload for sessions.sweep.completed messages.
type SweepCompletedEvent struct {
	EventID string
	RanAt   time.Time
	Deleted int64
}

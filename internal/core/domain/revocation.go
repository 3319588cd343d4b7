package domain

import "time"

// RevocationEntry marks a specific access token unusable before its natural expiry.
// Absence of an entry for a JTI means "not known to be revoked".
type RevocationEntry struct {
	JTI       string
	ExpiresAt time.Time
	RevokedAt time.Time
	Reason    *string
}

// Expired reports whether the underlying token would have expired naturally,
// making the denylist entry safe to delete.
func (e RevocationEntry) Expired(at time.Time) bool {
	return !e.ExpiresAt.After(at)
}

// SweepReport captures the outcome of a single maintenance pass over the
// revocation store.
type SweepReport struct {
	RanAt   time.Time
	Deleted int64
	Failed  bool
}

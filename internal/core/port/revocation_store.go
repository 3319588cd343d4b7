package port

import (
	"context"
	"time"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/domain"
)

// RevocationStore is the durable source of truth for revoked token identifiers.
// Entries are insert-once, delete-once; no row is ever mutated in place.
type RevocationStore interface {
	// Insert records a revocation. Inserting a JTI that already exists is a
	// silent no-op, never an error.
	Insert(ctx context.Context, entry domain.RevocationEntry) error
	// Exists reports whether the JTI is currently denylisted.
	Exists(ctx context.Context, jti string) (bool, error)
	// DeleteExpired removes every entry whose own expiry has passed and
	// returns the number of rows deleted.
	DeleteExpired(ctx context.Context, asOf time.Time) (int64, error)
}

// RevocationCache accelerates hot-path revocation lookups. A cache hit is an
// authoritative deny; a miss or an error must fall through to the store.
type RevocationCache interface {
	MarkRevoked(ctx context.Context, jti string, reason string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, string, error)
}

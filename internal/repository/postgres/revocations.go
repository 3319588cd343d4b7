package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/domain"
	"github.com/lkimdaryl/foodjournal-backend/internal/core/port"
)

const revokedTokensTable = "sessions.revoked_tokens"

// RevocationRepository implements port.RevocationStore using PostgreSQL.
// Rows are insert-once, delete-once; correctness under concurrent insert and
// sweep rests on the database's row-level atomicity, not on any engine lock.
type RevocationRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRevocationRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewRevocationRepository(exec pgExecutor) *RevocationRepository {
	return &RevocationRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert records a revocation entry. Re-inserting an existing JTI is a silent
// no-op: ON CONFLICT DO NOTHING keeps duplicate revocation idempotent without
// a read-modify-write cycle.
func (r *RevocationRepository) Insert(ctx context.Context, entry domain.RevocationEntry) error {
	jti := strings.TrimSpace(entry.JTI)
	if jti == "" {
		return fmt.Errorf("jti is required")
	}

	sql, args, err := r.builder.Insert(revokedTokensTable).
		Columns("jti", "expires_at", "revoked_at", "reason").
		Values(jti, entry.ExpiresAt.UTC(), entry.RevokedAt.UTC(), entry.Reason).
		Suffix("ON CONFLICT (jti) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert revoked token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert revoked token: %w", err)
	}

	return nil
}

// Exists reports whether the supplied JTI is denylisted. Absence means "not
// known to be revoked"; trust is default-allow once signature and expiry
// checks pass.
func (r *RevocationRepository) Exists(ctx context.Context, jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, fmt.Errorf("jti is required")
	}

	sql, args, err := r.builder.Select("1").
		From(revokedTokensTable).
		Where(squirrel.Eq{"jti": jti}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select revoked token sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("select revoked token: %w", err)
	}
	defer rows.Close()

	exists := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("scan revoked token: %w", err)
	}

	return exists, nil
}

// DeleteExpired removes every entry whose own expiry has passed and returns
// the number of rows deleted for observability.
func (r *RevocationRepository) DeleteExpired(ctx context.Context, asOf time.Time) (int64, error) {
	sql, args, err := r.builder.Delete(revokedTokensTable).
		Where(squirrel.LtOrEq{"expires_at": asOf.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete expired revocations sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired revocations: %w", err)
	}

	return tag.RowsAffected(), nil
}

var _ port.RevocationStore = (*RevocationRepository)(nil)

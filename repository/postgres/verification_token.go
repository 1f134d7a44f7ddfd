package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/firelater/authcore/model"
)

var _ model.VerificationTokenStore = (*VerificationTokenRepository)(nil)

type VerificationTokenRepository struct {
	db *Connection
}

func NewVerificationTokenRepository(db *Connection) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db}
}

// Replace keeps the one-live-token-per-user invariant: the delete and the
// insert commit together or not at all.
func (r *VerificationTokenRepository) Replace(ctx context.Context, token model.VerificationToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM verification_tokens WHERE user_id = $1`, token.UserID); err != nil {
		return fmt.Errorf("failed to delete prior verification token: %w", err)
	}

	const insert = `
        INSERT INTO verification_tokens (id, user_id, token_digest, expires_at, created_at)
        VALUES ($1, $2, $3, $4, NOW())
    `
	if _, err := tx.Exec(ctx, insert, token.ID, token.UserID, token.TokenDigest, token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to insert verification token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit verification token: %w", err)
	}
	return nil
}

func (r *VerificationTokenRepository) GetByDigest(ctx context.Context, tokenDigest string) (model.VerificationToken, error) {
	const query = `
        SELECT id, user_id, token_digest, expires_at, consumed_at, created_at
        FROM verification_tokens
        WHERE token_digest = $1 AND consumed_at IS NULL AND expires_at > NOW()
    `

	var vt model.VerificationToken
	err := r.db.QueryRow(ctx, query, tokenDigest).Scan(
		&vt.ID, &vt.UserID, &vt.TokenDigest, &vt.ExpiresAt, &vt.ConsumedAt, &vt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.VerificationToken{}, model.ErrNotFound
		}
		return model.VerificationToken{}, fmt.Errorf("failed to get verification token: %w", err)
	}
	return vt, nil
}

// Consume stamps the row conditionally; rows are kept as an audit trail.
// Concurrent redemptions resolve to a single winner on the consumed_at
// guard.
func (r *VerificationTokenRepository) Consume(ctx context.Context, tokenDigest string) error {
	const query = `
        UPDATE verification_tokens SET consumed_at = NOW()
        WHERE token_digest = $1 AND consumed_at IS NULL AND expires_at > NOW()
    `

	tag, err := r.db.Exec(ctx, query, tokenDigest)
	if err != nil {
		return fmt.Errorf("failed to consume verification token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

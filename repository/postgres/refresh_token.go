package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/firelater/authcore/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (id, token_digest, user_id, expires_at, revoked_at, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
    `

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		token.ID, token.TokenDigest, token.UserID, token.ExpiresAt, token.RevokedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// Redeem revokes and returns the record in one conditional UPDATE. Two
// concurrent redemptions of the same digest race on the revoked_at guard,
// so exactly one of them gets the row back.
func (r *RefreshTokenRepository) Redeem(ctx context.Context, tokenDigest string) (model.RefreshToken, error) {
	const query = `
        UPDATE refresh_tokens SET revoked_at = NOW()
        WHERE token_digest = $1 AND revoked_at IS NULL AND expires_at > NOW()
        RETURNING id, token_digest, user_id, expires_at, revoked_at, created_at
    `

	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, tokenDigest).Scan(
		&rt.ID, &rt.TokenDigest, &rt.UserID, &rt.ExpiresAt, &rt.RevokedAt, &rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to redeem refresh token: %w", err)
	}
	return rt, nil
}

func (r *RefreshTokenRepository) RevokeByDigest(ctx context.Context, tokenDigest string) error {
	const query = `
        UPDATE refresh_tokens SET revoked_at = NOW()
        WHERE token_digest = $1 AND revoked_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, tokenDigest); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	const query = `
        UPDATE refresh_tokens SET revoked_at = NOW()
        WHERE user_id = $1 AND revoked_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens by user: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) error {
	const query = `DELETE FROM refresh_tokens WHERE expires_at < $1`

	if _, err := r.db.Exec(ctx, query, cutoff); err != nil {
		return fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return nil
}

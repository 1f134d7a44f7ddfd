package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the stored record of one opaque refresh token. Only the
// digest is persisted; the raw token exists in the caller's hands and
// nowhere else.
type RefreshToken struct {
	ID          uuid.UUID
	TokenDigest string
	UserID      uuid.UUID
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	CreatedAt   time.Time
}

// RefreshTokenStore persists refresh-token records keyed by digest.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	// Redeem revokes and returns the record in one conditional step: it
	// succeeds only while the record is unrevoked and unexpired, so two
	// concurrent redemptions of the same token cannot both succeed.
	// Returns ErrNotFound when no redeemable record matches.
	Redeem(ctx context.Context, tokenDigest string) (RefreshToken, error)
	// RevokeByDigest revokes a record if present. Revoking an absent or
	// already-revoked record is not an error; logout is idempotent.
	RevokeByDigest(ctx context.Context, tokenDigest string) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
	// DeleteExpired drops records whose expiry predates cutoff. Retention
	// GC only; revocation state is what enforces security.
	DeleteExpired(ctx context.Context, cutoff time.Time) error
}

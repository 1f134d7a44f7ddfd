package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VerificationToken is the durable record of one email-verification token.
// Rows are kept after consumption as an audit trail; ConsumedAt marks them
// spent.
type VerificationToken struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	TokenDigest string
	ExpiresAt   time.Time
	ConsumedAt  *time.Time
	CreatedAt   time.Time
}

// VerificationTokenStore persists email-verification tokens, at most one
// live row per user.
type VerificationTokenStore interface {
	// Replace deletes any prior token row for the user and inserts the new
	// one in a single transaction.
	Replace(ctx context.Context, token VerificationToken) error
	// GetByDigest returns an unexpired, unconsumed record or ErrNotFound.
	GetByDigest(ctx context.Context, tokenDigest string) (VerificationToken, error)
	// Consume stamps ConsumedAt conditionally; it returns ErrNotFound when
	// the record was already consumed or expired, so a concurrent double
	// redemption resolves to a single winner.
	Consume(ctx context.Context, tokenDigest string) error
}

package model

import "github.com/google/uuid"

// AccessClaims is the claim set carried by issued access tokens. The token
// itself is opaque to this subsystem's consumers beyond these fields.
type AccessClaims struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Email    string
	Roles    []string
}

// TokenManager creates and validates signed, short-lived access tokens.
type TokenManager interface {
	GenerateAccessToken(claims AccessClaims) (string, error)
	ParseAccessToken(token string) (AccessClaims, error)
}

// TokenSource issues opaque one-time secrets and derives their storage
// digests. Implementations must be stateless and safe for concurrent use;
// tests substitute deterministic sources.
type TokenSource interface {
	// Issue returns a high-entropy raw token and its digest. The raw token
	// is handed out exactly once and never stored.
	Issue() (raw string, digest string, err error)
	// Digest recomputes the digest for a presented raw token so records
	// can be looked up without retaining raw material.
	Digest(raw string) string
}

// PasswordHasher is the slow adaptive one-way hash for passwords. Verify
// reports a mismatch as false, never as an error.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Package password wraps bcrypt behind the PasswordHasher contract.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is tuned for roughly 100ms per operation on current server
// hardware. Lower it only in tests.
const DefaultCost = 12

// Hasher hashes and verifies passwords with bcrypt. It is stateless and
// safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the given cost. Costs outside bcrypt's
// supported range fall back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. bcrypt's comparison is
// constant-time with respect to the digest contents; a mismatch or a
// malformed digest both report false.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

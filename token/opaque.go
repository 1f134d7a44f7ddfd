package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/firelater/authcore/model"
)

// rawTokenBytes is the entropy of issued opaque tokens.
const rawTokenBytes = 32

// Generator issues opaque refresh/reset/verification tokens. The raw token
// leaves the process exactly once; only its SHA-256 digest is used as a
// storage and lookup key, so a leaked store does not permit replay.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

var _ model.TokenSource = (*Generator)(nil)

func (g *Generator) Issue() (string, string, error) {
	buf := make([]byte, rawTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to read token entropy: %w", err)
	}

	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, g.Digest(raw), nil
}

// Digest is the deterministic one-way mapping from a presented raw token
// to its stored key.
func (g *Generator) Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

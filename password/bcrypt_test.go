package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("correctpw")
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	assert.True(t, h.Verify("correctpw", digest))
	assert.False(t, h.Verify("wrongpw", digest))
}

func TestHasher_VerifyMalformedDigest(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("anything", "not-a-bcrypt-digest"))
	assert.False(t, h.Verify("anything", ""))
}

func TestHasher_DistinctSalts(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestNewHasher_CostFallback(t *testing.T) {
	assert.Equal(t, DefaultCost, NewHasher(0).cost)
	assert.Equal(t, DefaultCost, NewHasher(100).cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
}

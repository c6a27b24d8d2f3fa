package passwords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher_CostRange(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost - 1)
	assert.ErrorIs(t, err, ErrInvalidCost)

	_, err = NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.ErrorIs(t, err, ErrInvalidCost)

	h, err := NewBcryptHasher(DefaultCost)
	require.NoError(t, err)
	assert.NotNil(t, h)
}

func TestHashAndVerify(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	ok, err := h.Verify(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(hash, "battery staple")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_IsSalted(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerify_MalformedHash(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := h.Verify("not-a-bcrypt-hash", "x")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestHash_TooLong(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	_, err = h.Hash(strings.Repeat("a", 73))
	assert.Error(t, err)
}

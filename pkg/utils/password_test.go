package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hashed, err := h.Hash("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hashed)

	ok, err := h.Compare(hashed, "admin123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hashed, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_DefaultCost(t *testing.T) {
	hashed, err := BcryptHasher{}.Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}

func TestBcryptHasher_BrokenHash(t *testing.T) {
	_, err := BcryptHasher{}.Compare("not-a-hash", "pw")
	assert.Error(t, err)
}

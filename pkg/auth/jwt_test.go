package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	s := NewSigner("secret", 30*time.Minute)

	raw, err := s.Sign("u-1", "SELLER", "s@example.com")
	require.NoError(t, err)

	claims, err := s.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "SELLER", claims.Role)
	assert.Equal(t, "s@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseRejectsExpired(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	s := NewSigner("secret", 30*time.Minute).WithClock(func() time.Time { return issued })

	raw, err := s.Sign("u-1", "ADMIN", "a@example.com")
	require.NoError(t, err)

	_, err = NewSigner("secret", 30*time.Minute).Parse(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	raw, err := NewSigner("one", time.Minute).Sign("u-1", "ADMIN", "a@example.com")
	require.NoError(t, err)

	_, err = NewSigner("two", time.Minute).Parse(raw)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

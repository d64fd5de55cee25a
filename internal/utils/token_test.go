package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken(secret, 42, 90)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(90*time.Minute), tok.Exp, 5*time.Second)

	claims, err := VerifySessionToken(secret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.WithinDuration(t, time.Now().UTC(), claims.IssuedAt, 5*time.Second)
}

func TestVerifySessionTokenWrongSecret(t *testing.T) {
	tok, err := NewSessionToken(secret, 42, 90)
	require.NoError(t, err)

	_, err = VerifySessionToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifySessionTokenExpired(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(-time.Minute)),
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC().Add(-2 * time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = VerifySessionToken(secret, raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifySessionTokenGarbage(t *testing.T) {
	_, err := VerifySessionToken(secret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifySessionTokenBadSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "not-a-number",
		ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = VerifySessionToken(secret, raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewResetToken(t *testing.T) {
	raw, hash, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, raw, 64) // 32 random bytes, hex encoded
	assert.NotEqual(t, raw, hash)
	assert.Equal(t, hash, HashResetRaw(raw))

	raw2, hash2, err := NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
	assert.NotEqual(t, hash, hash2)
}

func TestHashPasswordNeverStoresPlaintext(t *testing.T) {
	h, err := HashPassword("pass1234", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "pass1234", h)
	assert.True(t, VerifyPassword(h, "pass1234"))
	assert.False(t, VerifyPassword(h, "pass12345"))
}

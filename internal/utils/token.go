package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for reset tokens
	"encoding/hex"  // hex encoding functions
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken represents a signed session JWT along with its expiry.  The
// token is delivered both in the response body and as an HTTP-only cookie
// with the same expiry.
type SessionToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims extracted from a verified session token.
type Claims struct {
	UserID   uint64
	IssuedAt time.Time
}

// Verification failure modes.  ErrTokenExpired and ErrTokenInvalid map to
// distinct 401 messages upstream.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// NewSessionToken builds and signs an HS256 JWT asserting the user's
// identity.  The claims are the standard subject (sub), expiration (exp)
// and issued-at (iat); validity is a pure function of signature, expiry and
// the user's password-change time, so nothing is stored server-side.
func NewSessionToken(secret string, userID uint64, ttlMin int) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// VerifySessionToken checks signature and expiry and returns the embedded
// claims.  Expired tokens report ErrTokenExpired; anything else malformed
// reports ErrTokenInvalid.
func VerifySessionToken(secret, raw string) (Claims, error) {
	var rc jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &rc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	uid, err := strconv.ParseUint(rc.Subject, 10, 64)
	if err != nil || uid == 0 {
		return Claims{}, ErrTokenInvalid
	}
	if rc.IssuedAt == nil {
		return Claims{}, ErrTokenInvalid
	}
	return Claims{UserID: uid, IssuedAt: rc.IssuedAt.Time}, nil
}

// NewResetToken returns a cryptographically secure random token and the
// SHA-256 hex of it.  Only the hash is persisted; the raw value goes out by
// email and is compared by re-hashing on consume.
func NewResetToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, HashResetRaw(raw), nil
}

// HashResetRaw returns the SHA-256 hash of a raw reset token as a hex
// string.
func HashResetRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

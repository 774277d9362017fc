package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/primshare/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestTokenClaimsAccessors(t *testing.T) {
	issued := time.Now().Add(-time.Minute)
	expires := time.Now().Add(time.Hour)

	claims := &auth.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Type: auth.TokenTypeRefresh,
	}

	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "user-123", claims.UserID(), "UserID aliases Subject")
	assert.Equal(t, string(auth.TokenTypeRefresh), claims.TokenType())
	assert.WithinDuration(t, issued, claims.IssuedAt(), time.Second)
	assert.WithinDuration(t, expires, claims.Expires(), time.Second)
}

func TestTokenClaimsZeroTimestamps(t *testing.T) {
	claims := &auth.TokenClaims{}

	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
	assert.Empty(t, claims.TokenType())
}

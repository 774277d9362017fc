package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the decoded, verified view of a token
type AuthClaims interface {
	Subject() string
	UserID() string
	TokenType() string
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenClaims is the concrete claim set carried by every token this package
// mints: the registered claims plus the token type.
type TokenClaims struct {
	jwt.RegisteredClaims
	Type TokenType `json:"type,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*TokenClaims)(nil)

// Subject returns the subject claim, the user id the token was minted for
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID aliases Subject; tokens carry no separate uid claim
func (c *TokenClaims) UserID() string {
	return c.Subject()
}

// TokenType returns the token type as a string
func (c *TokenClaims) TokenType() string {
	return string(c.Type)
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

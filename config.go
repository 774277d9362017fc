package auth

import "time"

// Default token lifetimes. Override through SimpleConfig.
const (
	DefaultAccessTokenExpiration        = 30 * time.Minute
	DefaultRefreshTokenExpiration       = 30 * 24 * time.Hour
	DefaultResetPasswordTokenExpiration = 10 * time.Minute
	DefaultVerifyEmailTokenExpiration   = 10 * time.Minute
)

// SimpleConfig is a plain struct implementation of Config. Zero values fall
// back to sensible defaults, except the signing key which is required.
type SimpleConfig struct {
	SigningKey              string
	SigningMethod           string
	ContextKey              string
	AccessTokenExpiration   time.Duration
	RefreshTokenExpiration  time.Duration
	ResetTokenExpiration    time.Duration
	VerifyTokenExpiration   time.Duration
	TokenLookup             string
	AuthScheme              string
	Issuer                  string
	Audience                []string
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c *SimpleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetAccessTokenExpiration() time.Duration {
	if c.AccessTokenExpiration <= 0 {
		return DefaultAccessTokenExpiration
	}
	return c.AccessTokenExpiration
}

func (c *SimpleConfig) GetRefreshTokenExpiration() time.Duration {
	if c.RefreshTokenExpiration <= 0 {
		return DefaultRefreshTokenExpiration
	}
	return c.RefreshTokenExpiration
}

func (c *SimpleConfig) GetResetPasswordTokenExpiration() time.Duration {
	if c.ResetTokenExpiration <= 0 {
		return DefaultResetPasswordTokenExpiration
	}
	return c.ResetTokenExpiration
}

func (c *SimpleConfig) GetVerifyEmailTokenExpiration() time.Duration {
	if c.VerifyTokenExpiration <= 0 {
		return DefaultVerifyEmailTokenExpiration
	}
	return c.VerifyTokenExpiration
}

func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetIssuer() string { return c.Issuer }

func (c *SimpleConfig) GetAudience() []string { return c.Audience }

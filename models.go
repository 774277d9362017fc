package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenType identifies the purpose a token was minted for. A token is only
// valid for the operation that matches its type.
type TokenType string

const (
	// TokenTypeAccess is a short-lived, signature-only credential. Never persisted.
	TokenTypeAccess TokenType = "ACCESS"
	// TokenTypeRefresh is a long-lived, persisted credential used to mint a
	// new access/refresh pair. Single use: rotation deletes the row.
	TokenTypeRefresh TokenType = "REFRESH"
	// TokenTypeResetPassword is a persisted, single-use password reset credential.
	TokenTypeResetPassword TokenType = "RESET_PASSWORD"
	// TokenTypeVerifyEmail is a persisted, single-use email verification credential.
	TokenTypeVerifyEmail TokenType = "VERIFY_EMAIL"
)

// IsValid checks if the token type is one of the predefined types
func (t TokenType) IsValid() bool {
	switch t {
	case TokenTypeAccess, TokenTypeRefresh, TokenTypeResetPassword, TokenTypeVerifyEmail:
		return true
	default:
		return false
	}
}

// Persisted reports whether tokens of this type get a backing store row.
// Access tokens are validated by signature alone.
func (t TokenType) Persisted() bool {
	return t.IsValid() && t != TokenTypeAccess
}

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name           string     `bun:"name" json:"name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash,nullzero" json:"-"`
	Roles          []Role     `bun:"roles,type:jsonb" json:"roles,omitempty"`
	EmailVerified  bool       `bun:"is_email_verified" json:"is_email_verified"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasPassword reports whether password based login is possible for this user.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// HasRole checks if the user carries the given role
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Can checks if the user's role set grants the given permission
func (u *User) Can(permission Permission) bool {
	if u == nil {
		return false
	}
	return HasPermission(u.Roles, permission)
}

// PublicView strips credentials and login bookkeeping so the record is safe
// to hand to serializers.
func (u *User) PublicView() *User {
	if u == nil {
		return nil
	}
	view := *u
	view.PasswordHash = ""
	view.LoginAttempts = 0
	view.LoginAttemptAt = nil
	return &view
}

// Token is a persisted credential grant. Rows exist only for REFRESH,
// RESET_PASSWORD, and VERIFY_EMAIL tokens; ACCESS tokens are never stored.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:tok"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	Type          TokenType  `bun:"type,notnull" json:"type,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at"`
	Blacklisted   bool       `bun:"blacklisted,notnull,default:false" json:"blacklisted"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Usable reports whether the row may still satisfy a lookup at the given
// instant. The store enforces the same predicate in SQL; this is the
// in-memory mirror for callers that already hold a row.
func (t *Token) Usable(now time.Time) bool {
	if t == nil {
		return false
	}
	return !t.Blacklisted && t.ExpiresAt.After(now)
}

// TokenInfo pairs a serialized token with its expiry
type TokenInfo struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// TokenPair is the access/refresh pair returned by login, registration, and
// token rotation.
type TokenPair struct {
	Access  TokenInfo `json:"access"`
	Refresh TokenInfo `json:"refresh"`
}

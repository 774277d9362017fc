package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes attached to rich errors so API clients can branch on failures
// without parsing messages.
const (
	TextCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	TextCodeAuthRequired        = "AUTH_REQUIRED"
	TextCodePasswordResetFailed = "PASSWORD_RESET_FAILED"
	TextCodeVerificationFailed  = "EMAIL_VERIFICATION_FAILED"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeTokenNotFound       = "TOKEN_NOT_FOUND"
	TextCodePermissionDenied    = "PERMISSION_DENIED"
	TextCodeTooManyAttempts     = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	TextCodeEmailTaken          = "EMAIL_TAKEN"
)

// ErrInvalidCredentials is the single error surfaced for any login failure:
// unknown email, passwordless account, or hash mismatch. Keeping the message
// uniform avoids telling callers which emails exist.
var ErrInvalidCredentials = errors.New("Incorrect email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrPleaseAuthenticate is the collapsed error for any refresh failure
var ErrPleaseAuthenticate = errors.New("Please authenticate", errors.CategoryAuth).
	WithTextCode(TextCodeAuthRequired).
	WithCode(errors.CodeUnauthorized)

// ErrPasswordResetFailed is the collapsed error for any reset failure
var ErrPasswordResetFailed = errors.New("Password reset failed", errors.CategoryAuth).
	WithTextCode(TextCodePasswordResetFailed).
	WithCode(errors.CodeUnauthorized)

// ErrEmailVerificationFailed is the collapsed error for any verification failure
var ErrEmailVerificationFailed = errors.New("Email verification failed", errors.CategoryAuth).
	WithTextCode(TextCodeVerificationFailed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned by the codec when a token's exp claim has passed
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned by the codec when the raw string is not a
// well formed JWT or the signature does not check out.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenNotFound is the uniform store miss: missing row, blacklisted,
// expired, or wrong type all look the same to callers.
var ErrTokenNotFound = errors.New("token not found", errors.CategoryNotFound).
	WithTextCode(TextCodeTokenNotFound).
	WithCode(errors.CodeNotFound)

// ErrPermissionDenied is returned when an authenticated user lacks a
// required permission.
var ErrPermissionDenied = errors.New("insufficient permissions", errors.CategoryAuth).
	WithTextCode(TextCodePermissionDenied).
	WithCode(errors.CodeForbidden)

// ErrTooManyLoginAttempts is returned when a user exceeds the allowed number
// of failed logins inside the cooldown window.
var ErrTooManyLoginAttempts = errors.New("too many login attempts, try again later", errors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrEmailTaken is returned on registration when the email already has an account
var ErrEmailTaken = errors.New("email already taken", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrMismatchedHashAndPassword aliases the uniform credential failure so
// hashing helpers read naturally.
var ErrMismatchedHashAndPassword = ErrInvalidCredentials

// ErrNoEmptyString is returned by hashing helpers when given empty input
var ErrNoEmptyString = errors.New("value cannot be an empty string", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

func errInvalidTokenKind(t TokenType) *errors.Error {
	return errors.New("token type cannot be persisted", errors.CategoryBadInput).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"type": string(t)})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

package auth_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/primshare/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestCollapsedErrorMessages(t *testing.T) {
	// flow level errors carry fixed, uniform messages so responses never leak
	// why an operation failed
	assert.Equal(t, "Incorrect email or password", auth.ErrInvalidCredentials.Message)
	assert.Equal(t, "Please authenticate", auth.ErrPleaseAuthenticate.Message)
	assert.Equal(t, "Password reset failed", auth.ErrPasswordResetFailed.Message)
	assert.Equal(t, "Email verification failed", auth.ErrEmailVerificationFailed.Message)
}

func TestErrorTextCodes(t *testing.T) {
	tests := []struct {
		err      *goerrors.Error
		textCode string
	}{
		{auth.ErrInvalidCredentials, auth.TextCodeInvalidCredentials},
		{auth.ErrPleaseAuthenticate, auth.TextCodeAuthRequired},
		{auth.ErrPasswordResetFailed, auth.TextCodePasswordResetFailed},
		{auth.ErrEmailVerificationFailed, auth.TextCodeVerificationFailed},
		{auth.ErrTokenExpired, auth.TextCodeTokenExpired},
		{auth.ErrTokenMalformed, auth.TextCodeTokenMalformed},
		{auth.ErrTokenNotFound, auth.TextCodeTokenNotFound},
		{auth.ErrPermissionDenied, auth.TextCodePermissionDenied},
		{auth.ErrTooManyLoginAttempts, auth.TextCodeTooManyAttempts},
		{auth.ErrIdentityNotFound, auth.TextCodeIdentityNotFound},
		{auth.ErrEmailTaken, auth.TextCodeEmailTaken},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.textCode, tt.err.TextCode)
	}
}

func TestMismatchedHashAliasesInvalidCredentials(t *testing.T) {
	assert.Equal(t, auth.ErrInvalidCredentials, auth.ErrMismatchedHashAndPassword)
}

func TestTokenNotFoundIsNotFound(t *testing.T) {
	assert.True(t, goerrors.IsNotFound(auth.ErrTokenNotFound))
	assert.True(t, goerrors.IsNotFound(auth.ErrIdentityNotFound))
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenExpiredError(fmt.Errorf("jwt: token is expired")))
	assert.False(t, auth.IsTokenExpiredError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsTokenExpiredError(stderrors.New("some other error")))
	assert.False(t, auth.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.True(t, auth.IsMalformedError(fmt.Errorf("missing or malformed JWT")))
	assert.False(t, auth.IsMalformedError(auth.ErrTokenExpired))
	assert.False(t, auth.IsMalformedError(nil))
}

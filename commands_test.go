package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/primshare/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	resetTo     string
	resetToken  string
	resetCalls  int
	verifyTo    string
	verifyToken string
	verifyCalls int
	err         error
}

func (m *recordingMailer) SendPasswordReset(to string, token string, expires time.Time) error {
	m.resetCalls++
	m.resetTo = to
	m.resetToken = token
	return m.err
}

func (m *recordingMailer) SendEmailVerification(to string, token string, expires time.Time) error {
	m.verifyCalls++
	m.verifyTo = to
	m.verifyToken = token
	return m.err
}

func TestMessageTypes(t *testing.T) {
	assert.Equal(t, "user.register", auth.RegisterUserMessage{}.Type())
	assert.Equal(t, "user.password_reset", auth.InitializePasswordResetMessage{}.Type())
	assert.Equal(t, "user.verification_request", auth.AccountVerificationRequestMessage{}.Type())
}

func TestRegisterUserHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a user with tokens", func(t *testing.T) {
		auther, repo, db := newTestAuther(t)
		handler := auth.NewRegisterUserHandler(repo, auther)

		var resp *auth.RegisterUserResponse
		err := handler.Execute(ctx, auth.RegisterUserMessage{
			Name:     "New User",
			Email:    "register@example.com",
			Password: "password123",
			OnResponse: func(r *auth.RegisterUserResponse) {
				resp = r
			},
		})

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		assert.Equal(t, []auth.Role{auth.RoleUser}, resp.User.Roles)
		require.NotNil(t, resp.Tokens)
		assert.NotEmpty(t, resp.Tokens.Access.Token)

		// registration persists the refresh grant inside the same transaction
		assert.Equal(t, 1, countTokens(t, db, auth.TokenTypeRefresh))

		// the stored hash verifies against the plaintext
		got, err := repo.Users().GetByEmail(ctx, "register@example.com")
		require.NoError(t, err)
		assert.NoError(t, auth.ComparePasswordAndHash("password123", got.PasswordHash))
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		auther, repo, _ := newTestAuther(t)
		handler := auth.NewRegisterUserHandler(repo, auther)

		msg := auth.RegisterUserMessage{
			Name:     "First",
			Email:    "taken@example.com",
			Password: "password123",
		}
		require.NoError(t, handler.Execute(ctx, msg))

		err := handler.Execute(ctx, msg)
		assert.ErrorIs(t, err, auth.ErrEmailTaken)
	})

	t.Run("hashid derives a deterministic id", func(t *testing.T) {
		auther, repo, _ := newTestAuther(t)
		handler := auth.NewRegisterUserHandler(repo, auther)

		var resp *auth.RegisterUserResponse
		err := handler.Execute(ctx, auth.RegisterUserMessage{
			Name:      "Hashid User",
			Email:     "hashid@example.com",
			Password:  "password123",
			UseHashid: true,
			OnResponse: func(r *auth.RegisterUserResponse) {
				resp = r
			},
		})
		require.NoError(t, err)

		expected, err := hashid.NewUUID("hashid@example.com")
		require.NoError(t, err)
		assert.Equal(t, expected, resp.User.ID)
	})

	t.Run("phone numbers are normalized to E.164", func(t *testing.T) {
		auther, repo, _ := newTestAuther(t)
		handler := auth.NewRegisterUserHandler(repo, auther)

		var resp *auth.RegisterUserResponse
		err := handler.Execute(ctx, auth.RegisterUserMessage{
			Name:     "Phone User",
			Email:    "phone@example.com",
			Phone:    "(202) 555-0123",
			Password: "password123",
			OnResponse: func(r *auth.RegisterUserResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "+12025550123", resp.User.Phone)
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		auther, repo, _ := newTestAuther(t)
		handler := auth.NewRegisterUserHandler(repo, auther)

		err := handler.Execute(ctx, auth.RegisterUserMessage{
			Name:  "No Password",
			Email: "nopass@example.com",
		})
		assert.Error(t, err)
	})
}

func TestInitializePasswordResetHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("mints a token and mails it", func(t *testing.T) {
		auther, repo, db := newTestAuther(t)
		createTestUser(t, repo, "forgot@example.com")

		mailer := &recordingMailer{}
		handler := auth.NewInitializePasswordResetHandler(auther, mailer)

		var resp *auth.InitializePasswordResetResponse
		err := handler.Execute(ctx, auth.InitializePasswordResetMessage{
			Email: "forgot@example.com",
			OnResponse: func(r *auth.InitializePasswordResetResponse) {
				resp = r
			},
		})

		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, 1, mailer.resetCalls)
		assert.Equal(t, "forgot@example.com", mailer.resetTo)
		assert.NotEmpty(t, mailer.resetToken)

		// the mailed token has a live store row and completes the flow
		assert.Equal(t, 1, countTokens(t, db, auth.TokenTypeResetPassword))
		assert.NoError(t, auther.ResetPassword(ctx, mailer.resetToken, "NewPassword1"))
	})

	t.Run("unknown email surfaces NotFound", func(t *testing.T) {
		auther, _, _ := newTestAuther(t)
		handler := auth.NewInitializePasswordResetHandler(auther, &recordingMailer{})

		err := handler.Execute(ctx, auth.InitializePasswordResetMessage{Email: "nobody@example.com"})
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})

	t.Run("mailer failure is surfaced", func(t *testing.T) {
		auther, repo, _ := newTestAuther(t)
		createTestUser(t, repo, "mailfail@example.com")

		handler := auth.NewInitializePasswordResetHandler(auther, &recordingMailer{err: assert.AnError})

		err := handler.Execute(ctx, auth.InitializePasswordResetMessage{Email: "mailfail@example.com"})
		assert.Error(t, err)
	})
}

func TestAccountVerificationRequestHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("mints a token and mails it", func(t *testing.T) {
		auther, repo, _ := newTestAuther(t)
		user := createTestUser(t, repo, "sendverify@example.com")

		mailer := &recordingMailer{}
		handler := auth.NewAccountVerificationRequestHandler(repo, auther, mailer)

		var resp *auth.AccountVerificationRequestResponse
		err := handler.Execute(ctx, auth.AccountVerificationRequestMessage{
			UserID: user.ID.String(),
			OnResponse: func(r *auth.AccountVerificationRequestResponse) {
				resp = r
			},
		})

		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, 1, mailer.verifyCalls)
		assert.Equal(t, "sendverify@example.com", mailer.verifyTo)

		// the mailed token completes the flow
		require.NoError(t, auther.VerifyEmail(ctx, mailer.verifyToken))

		got, err := repo.Users().GetByEmail(ctx, "sendverify@example.com")
		require.NoError(t, err)
		assert.True(t, got.EmailVerified)
	})

	t.Run("already verified accounts are a no-op", func(t *testing.T) {
		auther, repo, _ := newTestAuther(t)
		user := createTestUser(t, repo, "verified@example.com")
		require.NoError(t, repo.Users().MarkEmailVerified(ctx, user.ID))

		mailer := &recordingMailer{}
		handler := auth.NewAccountVerificationRequestHandler(repo, auther, mailer)

		var resp *auth.AccountVerificationRequestResponse
		err := handler.Execute(ctx, auth.AccountVerificationRequestMessage{
			UserID: user.ID.String(),
			OnResponse: func(r *auth.AccountVerificationRequestResponse) {
				resp = r
			},
		})

		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Zero(t, mailer.verifyCalls)
	})

	t.Run("unknown user surfaces NotFound", func(t *testing.T) {
		auther, repo, _ := newTestAuther(t)
		handler := auth.NewAccountVerificationRequestHandler(repo, auther, &recordingMailer{})

		err := handler.Execute(ctx, auth.AccountVerificationRequestMessage{
			UserID: "8b36e416-9546-4f0b-bc46-52b2df30a6fa",
		})
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})
}

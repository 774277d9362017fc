package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	Token   *TokenInfo
	Success bool
}

// InitializePasswordResetHandler mints a reset token for the account behind
// the email and hands it to the mailer. The token itself never goes to the
// caller's response; it only travels through the email channel.
type InitializePasswordResetHandler struct {
	auth   *Auther
	mailer Mailer
}

func NewInitializePasswordResetHandler(auth *Auther, mailer Mailer) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		auth:   auth,
		mailer: normalizeMailer(mailer),
	}
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	info, err := h.auth.GenerateResetPasswordToken(ctx, event.Email)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if err := h.mailer.SendPasswordReset(event.Email, info.Token, info.Expires); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deliver password reset email")
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			Token:   info,
			Success: true,
		})
	}

	return nil
}

package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type AccountVerificationRequestMessage struct {
	UserID     string `json:"user_id" doc:"Account to send the verification email for."`
	OnResponse func(resp *AccountVerificationRequestResponse)
}

func (p AccountVerificationRequestMessage) Type() string { return "user.verification_request" }

type AccountVerificationRequestResponse struct {
	Token   *TokenInfo
	Success bool
}

// AccountVerificationRequestHandler mints a verify-email token for the user
// and hands it to the mailer. Already verified accounts are a no-op.
type AccountVerificationRequestHandler struct {
	repo   RepositoryManager
	auth   *Auther
	mailer Mailer
}

func NewAccountVerificationRequestHandler(repo RepositoryManager, auth *Auther, mailer Mailer) *AccountVerificationRequestHandler {
	return &AccountVerificationRequestHandler{
		repo:   repo,
		auth:   auth,
		mailer: normalizeMailer(mailer),
	}
}

func (h *AccountVerificationRequestHandler) Execute(ctx context.Context, event AccountVerificationRequestMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *AccountVerificationRequestHandler) execute(ctx context.Context, event AccountVerificationRequestMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByID(ctx, event.UserID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification request")
	}

	if user.EmailVerified {
		if event.OnResponse != nil {
			event.OnResponse(&AccountVerificationRequestResponse{Success: true})
		}
		return nil
	}

	info, err := h.auth.GenerateVerifyEmailToken(ctx, user)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
	}

	if err := h.mailer.SendEmailVerification(user.Email, info.Token, info.Expires); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deliver verification email")
	}

	if event.OnResponse != nil {
		event.OnResponse(&AccountVerificationRequestResponse{
			Token:   info,
			Success: true,
		})
	}

	return nil
}

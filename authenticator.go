package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Auther drives the token lifecycle: it pairs the stateless codec with the
// token store and decides which tokens get persisted. Failures inside each
// flow collapse to a single flow-level error so responses leak nothing about
// why a token was rejected.
type Auther struct {
	repo         RepositoryManager
	config       Config
	verifier     *CredentialVerifier
	logger       Logger
	tokenService TokenService
	activitySink ActivitySink
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService([]byte(opts.GetSigningKey()), defLogger{}).
		WithIssuer(opts.GetIssuer()).
		WithAudience(opts.GetAudience()...)

	return &Auther{
		repo:         repo,
		config:       opts,
		verifier:     NewCredentialVerifier(repo.Users()),
		logger:       defLogger{},
		tokenService: tokenService,
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger == nil {
		return s
	}
	s.logger = logger
	s.verifier = s.verifier.WithLogger(logger)
	if ts, ok := s.tokenService.(*TokenServiceImpl); ok {
		ts.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenService replaces the codec, e.g. to share one across services.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithCredentialVerifier replaces the login verifier.
func (s *Auther) WithCredentialVerifier(v *CredentialVerifier) *Auther {
	if v != nil {
		s.verifier = v
	}
	return s
}

// TokenService returns the codec used by this Auther
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login checks the email/password pair and returns the matching user.
// Any failure surfaces as the uniform ErrInvalidCredentials (or the cooldown
// error); callers typically follow up with GenerateAuthTokens.
func (s *Auther) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorFromUser(user), user.ID.String(), map[string]any{
		"email": email,
	})

	return user, nil
}

// Logout invalidates a refresh token. The store lookup is uniform: a
// missing, expired, blacklisted, or wrong-type token all fail the same way.
func (s *Auther) Logout(ctx context.Context, refreshToken string) error {
	row, err := s.repo.Tokens().FindValid(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return ErrTokenNotFound
	}

	if err := s.repo.Tokens().DeleteByID(ctx, row.ID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete refresh token")
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{ID: row.UserID.String(), Type: "user"}, row.UserID.String(), nil)

	return nil
}

// RefreshAuth rotates a refresh token: the presented token must verify
// against the codec AND have a live store row; the row is deleted and a
// fresh pair minted. Everything that can go wrong collapses to
// ErrPleaseAuthenticate.
func (s *Auther) RefreshAuth(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row, err := s.verifyPersistedTokenTx(ctx, tx, refreshToken, TokenTypeRefresh)
		if err != nil {
			return err
		}

		user, err := s.repo.Users().GetByID(ctx, row.UserID.String())
		if err != nil {
			return err
		}

		if err := s.repo.Tokens().DeleteByIDTx(ctx, tx, row.ID); err != nil {
			return err
		}

		pair, err = s.generateAuthTokensTx(ctx, tx, user)
		return err
	})

	if err != nil {
		s.logger.Error("RefreshAuth failed", "error", err)
		return nil, ErrPleaseAuthenticate
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefresh, SystemActor, "", nil)

	return pair, nil
}

// ResetPassword consumes a reset token and installs the new password. The
// flow also purges every outstanding reset token for the user, so a token
// can be used exactly once. All failures collapse to ErrPasswordResetFailed.
func (s *Auther) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	var userID uuid.UUID

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row, err := s.verifyPersistedTokenTx(ctx, tx, resetToken, TokenTypeResetPassword)
		if err != nil {
			return err
		}

		hash, err := HashPassword(newPassword)
		if err != nil {
			return err
		}

		if err := s.repo.Users().ResetPasswordTx(ctx, tx, row.UserID, hash); err != nil {
			return err
		}

		if _, err := s.repo.Tokens().DeleteAllByUserAndTypeTx(ctx, tx, row.UserID, TokenTypeResetPassword); err != nil {
			return err
		}

		userID = row.UserID
		return nil
	})

	if err != nil {
		s.logger.Error("ResetPassword failed", "error", err)
		return ErrPasswordResetFailed
	}

	s.emitAuthEvent(ctx, ActivityEventPasswordResetSuccess, ActorRef{ID: userID.String(), Type: "user"}, userID.String(), nil)

	return nil
}

// VerifyEmail consumes a verification token, marks the account verified, and
// purges the user's outstanding verification tokens. All failures collapse
// to ErrEmailVerificationFailed.
func (s *Auther) VerifyEmail(ctx context.Context, verifyToken string) error {
	var userID uuid.UUID

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row, err := s.verifyPersistedTokenTx(ctx, tx, verifyToken, TokenTypeVerifyEmail)
		if err != nil {
			return err
		}

		if err := s.repo.Users().MarkEmailVerifiedTx(ctx, tx, row.UserID); err != nil {
			return err
		}

		if _, err := s.repo.Tokens().DeleteAllByUserAndTypeTx(ctx, tx, row.UserID, TokenTypeVerifyEmail); err != nil {
			return err
		}

		userID = row.UserID
		return nil
	})

	if err != nil {
		s.logger.Error("VerifyEmail failed", "error", err)
		return ErrEmailVerificationFailed
	}

	s.emitAuthEvent(ctx, ActivityEventEmailVerified, ActorRef{ID: userID.String(), Type: "user"}, userID.String(), nil)

	return nil
}

// GenerateAuthTokens mints the access/refresh pair for a user. The access
// token is signature only; the refresh token also gets a store row.
func (s *Auther) GenerateAuthTokens(ctx context.Context, user *User) (*TokenPair, error) {
	pair, row, err := s.mintAuthPair(user)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Tokens().Save(ctx, row); err != nil {
		return nil, err
	}

	return pair, nil
}

func (s *Auther) generateAuthTokensTx(ctx context.Context, tx bun.IDB, user *User) (*TokenPair, error) {
	pair, row, err := s.mintAuthPair(user)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Tokens().SaveTx(ctx, tx, row); err != nil {
		return nil, err
	}

	return pair, nil
}

func (s *Auther) mintAuthPair(user *User) (*TokenPair, *Token, error) {
	if user == nil {
		return nil, nil, ErrIdentityNotFound
	}

	now := time.Now()

	accessExpires := now.Add(s.config.GetAccessTokenExpiration())
	access, err := s.tokenService.Issue(user.ID.String(), accessExpires, TokenTypeAccess)
	if err != nil {
		return nil, nil, err
	}

	refreshExpires := now.Add(s.config.GetRefreshTokenExpiration())
	refresh, err := s.tokenService.Issue(user.ID.String(), refreshExpires, TokenTypeRefresh)
	if err != nil {
		return nil, nil, err
	}

	pair := &TokenPair{
		Access:  TokenInfo{Token: access, Expires: accessExpires},
		Refresh: TokenInfo{Token: refresh, Expires: refreshExpires},
	}

	row := &Token{
		Token:     refresh,
		Type:      TokenTypeRefresh,
		ExpiresAt: refreshExpires,
		UserID:    user.ID,
	}

	return pair, row, nil
}

// GenerateResetPasswordToken mints and persists a reset token for the
// account behind the email. Unknown emails surface as NotFound; the HTTP
// layer decides whether to hide that from clients.
func (s *Auther) GenerateResetPasswordToken(ctx context.Context, email string) (*TokenInfo, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	info, err := s.issuePersistedToken(ctx, user, TokenTypeResetPassword, s.config.GetResetPasswordTokenExpiration())
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventPasswordResetRequest, actorFromUser(user), user.ID.String(), map[string]any{
		"email": email,
	})

	return info, nil
}

// GenerateVerifyEmailToken mints and persists a verification token for the user.
func (s *Auther) GenerateVerifyEmailToken(ctx context.Context, user *User) (*TokenInfo, error) {
	if user == nil {
		return nil, ErrIdentityNotFound
	}
	return s.issuePersistedToken(ctx, user, TokenTypeVerifyEmail, s.config.GetVerifyEmailTokenExpiration())
}

func (s *Auther) issuePersistedToken(ctx context.Context, user *User, tokenType TokenType, ttl time.Duration) (*TokenInfo, error) {
	expires := time.Now().Add(ttl)

	raw, err := s.tokenService.Issue(user.ID.String(), expires, tokenType)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.Tokens().Save(ctx, &Token{
		Token:     raw,
		Type:      tokenType,
		ExpiresAt: expires,
		UserID:    user.ID,
	})
	if err != nil {
		return nil, err
	}

	return &TokenInfo{Token: raw, Expires: expires}, nil
}

// verifyPersistedTokenTx is the shared gate for refresh/reset/verify flows:
// the raw token must carry a valid signature and the matching type claim,
// AND have a live row of that type in the store.
func (s *Auther) verifyPersistedTokenTx(ctx context.Context, tx bun.IDB, raw string, tokenType TokenType) (*Token, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		return nil, err
	}

	if claims.TokenType() != string(tokenType) {
		return nil, ErrTokenNotFound
	}

	row, err := s.repo.Tokens().FindValidTx(ctx, tx, raw, tokenType)
	if err != nil {
		return nil, err
	}

	if row.UserID.String() != claims.Subject() {
		return nil, ErrTokenNotFound
	}

	return row, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Error("activity sink record error: %v", err)
	}
}

func actorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}

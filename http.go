package auth

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/primshare/go-auth/middleware/jwtware"
)

// UserKey is the router Locals key holding the resolved *User for
// authenticated requests. The raw claims live under Config.GetContextKey().
const UserKey = "current_user"

// RefreshCookieName is the cookie used when refresh tokens travel via cookie
// instead of the response body.
const RefreshCookieName = "refresh_token"

// RouteAuthenticator wires the JWT guard into routes: it validates the
// bearer token, requires the ACCESS type, resolves the subject to a live
// user, and exposes permission checks on top.
type RouteAuthenticator struct {
	auth         *Auther
	cfg          Config
	users        Users
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewRouteAuthenticator(auther *Auther, users Users, cfg Config) *RouteAuthenticator {
	a := &RouteAuthenticator{
		auth:   auther,
		cfg:    cfg,
		users:  users,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// Protected returns the guard middleware for API routes. Only ACCESS tokens
// pass: refresh, reset, and verify tokens carry valid signatures but the
// wrong type claim.
func (a *RouteAuthenticator) Protected() router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler: a.MakeClientRouteAuthErrorHandler(false),
		SigningKey: jwtware.SigningKey{
			Key:    []byte(a.cfg.GetSigningKey()),
			JWTAlg: a.cfg.GetSigningMethod(),
		},
		AuthScheme:        a.cfg.GetAuthScheme(),
		ContextKey:        a.cfg.GetContextKey(),
		TokenLookup:       a.cfg.GetTokenLookup(),
		TokenValidator:    validatorAdapter{ts: a.auth.TokenService()},
		RequiredTokenType: string(TokenTypeAccess),
		ValidationListeners: []jwtware.ValidationListener{
			a.resolveUser,
		},
	})
}

// RequirePermission gates a route on a permission. It must run after
// Protected, which resolves the user; an authenticated user without the
// permission gets Forbidden.
func (a *RouteAuthenticator) RequirePermission(permission Permission) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			user, ok := GetRouterUser(c, UserKey)
			if !ok {
				return a.ErrorHandler(c, ErrPleaseAuthenticate)
			}

			if !user.Can(permission) {
				a.Logger.Info(
					"Permission denied",
					"user_id", user.ID.String(),
					"permission", string(permission),
				)
				return a.ErrorHandler(c, ErrPermissionDenied.Clone().WithMetadata(map[string]any{
					"permission": string(permission),
				}))
			}

			return next(c)
		}
	}
}

// resolveUser turns the token subject into a live user record. A token for a
// deleted account is as good as no token.
func (a *RouteAuthenticator) resolveUser(ctx router.Context, claims jwtware.AuthClaims) error {
	user, err := a.users.GetByID(ctx.Context(), claims.Subject())
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrPleaseAuthenticate
		}
		return err
	}

	ctx.Locals(UserKey, user)
	ctx.SetContext(WithContext(ctx.Context(), user))

	return nil
}

// MakeClientRouteAuthErrorHandler builds the guard error handler. With
// optional=true a failed token lets the request continue unauthenticated.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

// SetRefreshCookie stores the refresh token in an HTTP-only cookie for
// clients that prefer cookie transport over response bodies.
func (a *RouteAuthenticator) SetRefreshCookie(c router.Context, info TokenInfo) {
	c.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    info.Token,
		Expires:  info.Expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// ClearRefreshCookie expires the refresh cookie.
func (a *RouteAuthenticator) ClearRefreshCookie(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Request error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.JSON(richErr.Code, map[string]any{
		"error": map[string]any{
			"message": richErr.Message,
			"code":    richErr.TextCode,
		},
	})
}

// validatorAdapter narrows the codec's claims to the middleware's mirror
// interface, keeping the middleware free of a dependency on this package.
type validatorAdapter struct {
	ts TokenService
}

func (v validatorAdapter) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := v.ts.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

package auth

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

// passwordRules is the account password policy: at least 8 characters with
// at least one letter and one digit.
func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(8, 100),
		validation.Match(hasLetter).Error("must contain at least one letter"),
		validation.Match(hasDigit).Error("must contain at least one number"),
	}
}

// RegisterAuthRoutes mounts the JSON auth API on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.Register).
		SetName("auth.register")
	app.Post(controller.Routes.Login, controller.Login).
		SetName("auth.login")
	app.Post(controller.Routes.Logout, controller.Logout).
		SetName("auth.logout")
	app.Post(controller.Routes.RefreshTokens, controller.RefreshTokens).
		SetName("auth.refresh-tokens")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).
		SetName("auth.forgot-password")
	app.Post(controller.Routes.ResetPassword, controller.ResetPassword).
		SetName("auth.reset-password")
	app.Post(controller.Routes.SendVerificationEmail, controller.SendVerificationEmail).
		SetName("auth.send-verification-email")
	app.Post(controller.Routes.VerifyEmail, controller.VerifyEmail).
		SetName("auth.verify-email")
}

type AuthControllerRoutes struct {
	Register              string
	Login                 string
	Logout                string
	RefreshTokens         string
	ForgotPassword        string
	ResetPassword         string
	SendVerificationEmail string
	VerifyEmail           string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Auther       *Auther
	Mailer       Mailer
	Routes       *AuthControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerMailer(mailer Mailer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = normalizeMailer(mailer)
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Mailer: noopMailer{},
		Routes: &AuthControllerRoutes{
			Register:              "/auth/register",
			Login:                 "/auth/login",
			Logout:                "/auth/logout",
			RefreshTokens:         "/auth/refresh-tokens",
			ForgotPassword:        "/auth/forgot-password",
			ResetPassword:         "/auth/reset-password",
			SendVerificationEmail: "/auth/send-verification-email",
			VerifyEmail:           "/auth/verify-email",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.jsonErrHandler
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	return c
}

// RegisterRequest payload
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, passwordRules()...),
	)
}

func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return a.badRequest(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload", "error", err)
		return a.badRequest(ctx, "Error validating payload", FormatValidationErrorToMap(err))
	}

	if a.Debug {
		a.Logger.Debug("register payload: %s", print.MaybePrettyJSON(payload))
	}

	var res *RegisterUserResponse
	req := RegisterUserMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		OnResponse: func(resp *RegisterUserResponse) {
			res = resp
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Auther)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register execute", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, map[string]any{
		"user":   res.User.PublicView(),
		"tokens": res.Tokens,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.badRequest(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, "Error validating payload", FormatValidationErrorToMap(err))
	}

	user, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	tokens, err := a.Auther.GenerateAuthTokens(ctx.Context(), user)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"user":   user.PublicView(),
		"tokens": tokens,
	})
}

// RefreshTokenRequest payload. The refresh token comes from the body, or
// from the refresh cookie when the body omits it.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) refreshTokenFrom(ctx router.Context) (string, error) {
	payload := new(RefreshTokenRequest)

	if err := ctx.Bind(payload); err == nil && payload.RefreshToken != "" {
		return payload.RefreshToken, nil
	}

	if cookie := ctx.Cookies(RefreshCookieName); cookie != "" {
		return cookie, nil
	}

	return "", ErrPleaseAuthenticate
}

func (a *AuthController) Logout(ctx router.Context) error {
	raw, err := a.refreshTokenFrom(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Auther.Logout(ctx.Context(), raw); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusNoContent).SendString("")
}

func (a *AuthController) RefreshTokens(ctx router.Context) error {
	raw, err := a.refreshTokenFrom(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	tokens, err := a.Auther.RefreshAuth(ctx.Context(), raw)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"tokens": tokens,
	})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPassword(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.badRequest(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, "Error validating payload", FormatValidationErrorToMap(err))
	}

	req := InitializePasswordResetMessage{Email: payload.Email}

	initPwdReset := NewInitializePasswordResetHandler(a.Auther, a.Mailer)
	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("forgot password execute", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusNoContent).SendString("")
}

// ResetPasswordRequest payload. The reset token travels in the query string,
// matching the link format in the reset email.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, passwordRules()...),
	)
}

func (a *AuthController) ResetPassword(ctx router.Context) error {
	token := ctx.Query("token", "")
	if token == "" {
		return a.badRequest(ctx, "Missing reset token", nil)
	}

	payload := new(ResetPasswordRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.badRequest(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, "Error validating payload", FormatValidationErrorToMap(err))
	}

	if err := a.Auther.ResetPassword(ctx.Context(), token, payload.Password); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusNoContent).SendString("")
}

/// SendVerificationEmail requires an authenticated request: the guard stores
// the resolved user before this handler runs.
func (a *AuthController) SendVerificationEmail(ctx router.Context) error {
	user, ok := GetRouterUser(ctx, UserKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrPleaseAuthenticate)
	}

	req := AccountVerificationRequestMessage{UserID: user.ID.String()}

	verification := NewAccountVerificationRequestHandler(a.Repo, a.Auther, a.Mailer)
	if err := verification.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("send verification email execute", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusNoContent).SendString("")
}

func (a *AuthController) VerifyEmail(ctx router.Context) error {
	token := ctx.Query("token", "")
	if token == "" {
		return a.badRequest(ctx, "Missing verification token", nil)
	}

	if err := a.Auther.VerifyEmail(ctx.Context(), token); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusNoContent).SendString("")
}

func (a *AuthController) badRequest(ctx router.Context, message string, details map[string]string) error {
	body := map[string]any{
		"error": map[string]any{
			"message": message,
		},
	}

	if len(details) > 0 {
		body["error"].(map[string]any)["details"] = details
	}

	return ctx.JSON(fiber.StatusBadRequest, body)
}

func (a *AuthController) jsonErrHandler(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Error(
		"auth controller error",
		"error", richErr.Message,
		"category", richErr.Category,
	)

	return ctx.JSON(richErr.Code, map[string]any{
		"error": map[string]any{
			"message": richErr.Message,
			"code":    richErr.TextCode,
		},
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

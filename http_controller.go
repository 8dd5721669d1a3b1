package auth

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
)

// RefreshCookieName is the cookie the refresh token travels in. The
// token never appears in a response body.
const RefreshCookieName = "refreshToken"

// AuthController maps the session manager onto the /api/auth surface.
type AuthController struct {
	Logger   Logger
	Sessions *SessionManager
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func NewAuthController(sessions *SessionManager, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:   defLogger{},
		Sessions: sessions,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		panic("Missing SessionManager in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth endpoints on the app. The guard
// protects the routes that require a live access token.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController, guard fiber.Handler) {
	grp := app.Group("/api/auth")

	grp.Post("/signup", controller.Signup)
	grp.Post("/login", controller.Login)
	grp.Post("/refresh", controller.Refresh)
	grp.Post("/logout", guard, controller.Logout)
	grp.Post("/forgot-password", controller.ForgotPassword)
	grp.Post("/reset-password", controller.ResetPassword)
	grp.Delete("/account", guard, controller.DeleteAccount)
}

// SignupRequest payload
type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	TermsAgreed     bool   `json:"termsAgreed"`
	PrivacyAgreed   bool   `json:"privacyAgreed"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(1, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.PasswordConfirm, validation.Required),
		validation.Field(&r.Name, validation.Length(0, 50)),
		validation.Field(&r.Type, validation.Required, validation.In(UserTypeActor, UserTypeAgency)),
	)
}

func (a *AuthController) Signup(c *fiber.Ctx) error {
	payload := new(SignupRequest)

	if err := c.BodyParser(payload); err != nil {
		return RespondError(c, a.Logger, validation.Errors{
			"body": errors.New("unable to parse request body"),
		})
	}

	if err := payload.Validate(); err != nil {
		return RespondError(c, a.Logger, err)
	}

	user, err := a.Sessions.Signup(c.Context(), SignupInput{
		Email:           payload.Email,
		Password:        payload.Password,
		PasswordConfirm: payload.PasswordConfirm,
		Name:            payload.Name,
		Type:            payload.Type,
		TermsAgreed:     payload.TermsAgreed,
		PrivacyAgreed:   payload.PrivacyAgreed,
	})
	if err != nil {
		return RespondError(c, a.Logger, err)
	}

	return respond(c, fiber.StatusCreated, fiber.Map{
		"userId": user.ID,
		"email":  user.Email,
		"type":   user.Type,
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

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return RespondError(c, a.Logger, validation.Errors{
			"body": errors.New("unable to parse request body"),
		})
	}

	if err := payload.Validate(); err != nil {
		return RespondError(c, a.Logger, err)
	}

	result, err := a.Sessions.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return RespondError(c, a.Logger, err)
	}

	a.setRefreshCookie(c, result.RefreshToken)

	return respond(c, fiber.StatusOK, result)
}

// Refresh rotates the session using the refresh cookie. No body is
// read; clients that still send one are ignored.
func (a *AuthController) Refresh(c *fiber.Ctx) error {
	presented := c.Cookies(RefreshCookieName)
	if presented == "" {
		return RespondError(c, a.Logger, ErrInvalidRefreshToken)
	}

	result, err := a.Sessions.Refresh(c.Context(), presented)
	if err != nil {
		return RespondError(c, a.Logger, err)
	}

	a.setRefreshCookie(c, result.RefreshToken)

	return respond(c, fiber.StatusOK, fiber.Map{
		"accessToken": result.AccessToken,
	})
}

func (a *AuthController) Logout(c *fiber.Ctx) error {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return RespondError(c, a.Logger, err)
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return RespondError(c, a.Logger, err)
	}

	if err := a.Sessions.Logout(c.Context(), userID); err != nil {
		return RespondError(c, a.Logger, err)
	}

	a.clearRefreshCookie(c)

	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "logged out",
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

func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	payload := new(ForgotPasswordRequest)

	if err := c.BodyParser(payload); err != nil {
		return RespondError(c, a.Logger, validation.Errors{
			"body": errors.New("unable to parse request body"),
		})
	}

	if err := payload.Validate(); err != nil {
		return RespondError(c, a.Logger, err)
	}

	token, err := a.Sessions.ForgotPassword(c.Context(), payload.Email)
	if err != nil {
		return RespondError(c, a.Logger, err)
	}

	return respond(c, fiber.StatusOK, fiber.Map{
		"message":    "password reset issued",
		"resetToken": token,
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.ConfirmPassword, validation.Required),
	)
}

func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	payload := new(ResetPasswordRequest)

	if err := c.BodyParser(payload); err != nil {
		return RespondError(c, a.Logger, validation.Errors{
			"body": errors.New("unable to parse request body"),
		})
	}

	if err := payload.Validate(); err != nil {
		return RespondError(c, a.Logger, err)
	}

	if err := a.Sessions.ResetPassword(c.Context(), payload.Token, payload.NewPassword, payload.ConfirmPassword); err != nil {
		return RespondError(c, a.Logger, err)
	}

	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "password updated",
	})
}

func (a *AuthController) DeleteAccount(c *fiber.Ctx) error {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return RespondError(c, a.Logger, err)
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return RespondError(c, a.Logger, err)
	}

	if err := a.Sessions.DeactivateAccount(c.Context(), userID); err != nil {
		return RespondError(c, a.Logger, err)
	}

	a.clearRefreshCookie(c)

	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "account deactivated",
	})
}

func (a *AuthController) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.Sessions.refreshTTL / time.Second),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (a *AuthController) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

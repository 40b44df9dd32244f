package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/thegoodfork/accounts/internal/api/metrics"
	"github.com/thegoodfork/accounts/internal/core/ports"
)

const (
	msgInvalidBody       = "Invalid request body."
	msgEmailSent         = "Email sent successfully."
	msgPasswordReset     = "Password has been reset successfully."
	msgDeleteUnsupported = "Account deletion is not supported."
)

type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register creates a new account and signs the caller in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration form"
// @Success      201   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/v1/auth/register [post]
func (h *AccountHandler) Register(c echo.Context) (err error) {
	defer observe(metrics.FlowRegister, time.Now(), &err)

	var req registerRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	token, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Username:             req.Username,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PassCheck,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, tokenResponse{Success: true, Token: token})
}

// Login authenticates by username or email and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Username or email, and password"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/v1/auth/login [post]
func (h *AccountHandler) Login(c echo.Context) (err error) {
	defer observe(metrics.FlowLogin, time.Now(), &err)

	var req loginRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	token, err := h.accounts.Login(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{Success: true, Token: token})
}

// ForgotPassword mails a reset code to the account's address.
//
// @Summary      Request a password reset code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotRequest  true  "Username or email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/v1/auth/forgot [post]
func (h *AccountHandler) ForgotPassword(c echo.Context) (err error) {
	defer observe(metrics.FlowForgot, time.Now(), &err)

	var req forgotRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ForgotPassword(c.Request().Context(), req.Forgot); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Success: true, Data: msgEmailSent})
}

// ResetPassword redeems a reset code and replaces the password.
//
// @Summary      Reset the password with a mailed code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        resetToken  path      string         true  "Reset code from the email"
// @Param        body        body      resetRequest   true  "New password"
// @Success      201         {object}  messageResponse
// @Failure      400         {object}  errorResponse
// @Failure      401         {object}  errorResponse
// @Router       /api/v1/auth/reset/{resetToken} [put]
func (h *AccountHandler) ResetPassword(c echo.Context) (err error) {
	defer observe(metrics.FlowReset, time.Now(), &err)

	var req resetRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ResetPassword(c.Request().Context(), req.ResetToken, req.Password); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, messageResponse{Success: true, Data: msgPasswordReset})
}

// UserInfo returns the account behind the bearer token.
//
// @Summary      Who am I
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/v1/auth/userinfo [get]
func (h *AccountHandler) UserInfo(c echo.Context) (err error) {
	defer observe(metrics.FlowUserInfo, time.Now(), &err)

	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.accounts.WhoAmI(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userResponse{Success: true, User: user})
}

// Delete is routed but intentionally unsupported.
//
// @Summary      Delete account (not supported)
// @Tags         auth
// @Produce      json
// @Failure      501  {object}  errorResponse
// @Router       /api/v1/auth/delete [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	return echo.NewHTTPError(http.StatusNotImplemented, msgDeleteUnsupported)
}

func observe(flow string, start time.Time, err *error) {
	metrics.Observe(flow, start, *err)
}

package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/thegoodfork/accounts/internal/api/middleware"
	"github.com/thegoodfork/accounts/internal/core/domain"
	"github.com/thegoodfork/accounts/internal/core/service"
)

// ctxUserID extracts the subject injected by the Auth middleware. An empty
// value means the middleware did not run, which is treated like a bad token.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.UserIDKey).(string)
	if userID == "" {
		return "", domain.Authentication(service.MsgUserInfoFailed, nil)
	}
	return userID, nil
}

// bindRequest decodes the path and body into req and applies its validate tags.
func bindRequest(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewError(domain.KindValidation, msgInvalidBody, err)
	}
	if err := c.Validate(req); err != nil {
		return domain.NewError(domain.KindValidation, err.Error(), err)
	}
	return nil
}

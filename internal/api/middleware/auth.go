package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/thegoodfork/accounts/internal/core/domain"
	"github.com/thegoodfork/accounts/internal/core/ports"
	"github.com/thegoodfork/accounts/internal/core/service"
)

// UserIDKey is the echo context key holding the verified subject id.
const UserIDKey = "user_id"

// Auth validates the bearer token and injects the subject id into context.
// Every failure yields the same 401 so callers cannot tell a missing header
// from a forged or expired token.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return domain.Authentication(service.MsgUserInfoFailed, nil)
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				return domain.Authentication(service.MsgUserInfoFailed, err)
			}

			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

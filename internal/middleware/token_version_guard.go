package middleware

import (
	"cakedelight/internal/repository"

	"github.com/labstack/echo/v4"
)

// TokenVersionGuard は発行後に無効化されたトークンを落とす。
// tvがDBのtoken_versionとずれている、またはユーザーが停止中なら401。
func TokenVersionGuard(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := identityFrom(c)
			if !ok {
				return unauthorized(c)
			}

			u, err := users.FindByID(c.Request().Context(), id.UserID)
			switch {
			case err != nil, u == nil:
				return unauthorized(c)
			case !u.IsActive, u.TokenVersion != id.TokenVersion:
				return unauthorized(c)
			}
			return next(c)
		}
	}
}

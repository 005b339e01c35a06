package middleware

import (
	"cakedelight/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// RoleGuard はroleが許可リストに入っているときだけ通す。
// AuthJWTの後ろに置く。
func RoleGuard(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := identityFrom(c)
			if !ok || id.Role == "" {
				return unauthorized(c)
			}
			if !allowed[id.Role] {
				return forbidden(c)
			}
			return next(c)
		}
	}
}

// ADMINだけ
func AdminRoleGuard() echo.MiddlewareFunc {
	return RoleGuard(model.RoleAdmin)
}

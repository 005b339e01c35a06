package handler

import (
	"net/http"
	"strconv"

	"cakedelight/internal/domain/model"
	"cakedelight/internal/middleware"
	"cakedelight/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// AuthJWTが入れたuser_id
func getUserIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func getActorFromContext(c echo.Context) (usecase.Actor, bool) {
	id, ok := getUserIDFromContext(c)
	if !ok {
		return usecase.Actor{}, false
	}
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	return usecase.Actor{UserID: id, Role: model.Role(role)}, true
}

// 空ならdefを返す
func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

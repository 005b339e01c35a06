package handler

import (
	"net/http"

	"cakedelight/internal/middleware"
	"cakedelight/internal/repository"
	"cakedelight/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

// DI
func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(jwtSecret))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/orders", h.list)
	admin.PATCH("/orders/:id/status", h.updateStatus)
	admin.GET("/stats", h.stats)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	from, ok := usecase.ParseDateTimeRFC3339(c.QueryParam("from"))
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
	}
	to, ok := usecase.ParseDateTimeRFC3339(c.QueryParam("to"))
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		UserID: c.QueryParam("user_id"),
		From:   from,
		To:     to,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.UpdateStatus(
		c.Request().Context(),
		adminID,
		c.Param("id"),
		usecase.AdminUpdateOrderStatusInput{Status: req.Status},
	); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminOrderHandler) stats(c echo.Context) error {
	out, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

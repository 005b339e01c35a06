package handler

import (
	"net/http"

	"cakedelight/internal/domain/model"
	"cakedelight/internal/middleware"
	"cakedelight/internal/repository"
	"cakedelight/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 二重送信防止キーのヘッダー
const IdempotencyKeyHeader = "Idempotency-Key"

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderCreateRequest struct {
	Items           []usecase.PlaceOrderItem `json:"items"`
	ShippingAddress model.ShippingAddress    `json:"shipping_address"`
	PaymentMethod   model.PaymentMethod      `json:"payment_method"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(jwtSecret))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//キーはヘッダーから受け取る（bodyには入れない）
	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		Items:          req.Items,
		Shipping:       req.ShippingAddress,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]usecase.OrderOutput{"items": out})
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

package handler

import (
	"net/http"

	"cakedelight/internal/domain/model"
	"cakedelight/internal/middleware"
	"cakedelight/internal/repository"
	"cakedelight/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductCreateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Stock       int64           `json:"stock"`
	IsActive    bool            `json:"is_active"`
}

func (r ProductCreateRequest) toInput() usecase.AdminCreateProductInput {
	return usecase.AdminCreateProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Image:       r.Image,
		Stock:       r.Stock,
		IsActive:    r.IsActive,
	}
}

type StockUpdateRequest struct {
	Stock *int64 `json:"stock"`
}

// /admin/products（ADMINとVENDOR）
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository) {
	g := e.Group("/admin/products")

	g.Use(middleware.AuthJWT(jwtSecret))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.Use(middleware.RoleGuard(model.RoleAdmin, model.RoleVendor))

	g.GET("", h.listOwn)
	g.POST("", h.createProduct)
	g.PUT("/:id", h.updateProduct)
	g.DELETE("/:id", h.deleteProduct)
	g.PATCH("/:id/stock", h.updateStock)
}

func (h *AdminProductHandler) listOwn(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	out, err := h.uc.ListVendorProducts(c.Request().Context(), actor, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req ProductCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), actor, req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	var req ProductCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.AdminUpdateProduct(c.Request().Context(), actor, c.Param("id"), req.toInput()); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), actor, c.Param("id")); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) updateStock(c echo.Context) error {
	var req StockUpdateRequest
	if err := c.Bind(&req); err != nil || req.Stock == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.AdminUpdateInventory(c.Request().Context(), actor, c.Param("id"), *req.Stock); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "stock updated"})
}

package handler

import (
	"net/http"

	"cakedelight/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
	e.GET("/categories", h.categories)
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, false
	}
	return &d, true
}

func (h *ProductHandler) list(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	minPrice, ok := queryDecimal(c, "min_price")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid min_price"})
	}
	maxPrice, ok := queryDecimal(c, "max_price")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid max_price"})
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	p, err := h.uc.GetProductDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) categories(c echo.Context) error {
	cats, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"items": cats})
}

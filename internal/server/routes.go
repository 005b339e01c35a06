package server

import (
	"cakedelight/internal/handler"
	"cakedelight/internal/repository"

	"github.com/labstack/echo/v4"
)

// ルート登録に必要なもの一式
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Order        *handler.OrderHandler
	AdminProduct *handler.AdminProductHandler
	AdminOrder   *handler.AdminOrderHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, userRepo repository.UserRepository) {
	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Order.RegisterRoutes(e, jwtSecret, userRepo)
	h.AdminProduct.RegisterRoutes(e, jwtSecret, userRepo)
	h.AdminOrder.RegisterRoutes(e, jwtSecret, userRepo)
}

package handler

import (
	"errors"
	"net/http"

	"cakedelight/internal/domain/model"
	auth "cakedelight/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase // 会員登録usecase
	loginUC    *auth.LoginUsecase        // ログインusecase
}

// DIコンストラクタ
func NewAuthHandler(registerUC *auth.RegisterUserUsecase, loginUC *auth.LoginUsecase) *AuthHandler {
	return &AuthHandler{registerUC: registerUC, loginUC: loginUC}
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmailFormat),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrInvalidRole):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: "CONFLICT"})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL"})
		}
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
		case errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "FORBIDDEN"})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL"})
		}
	}

	return c.JSON(http.StatusOK, out)
}

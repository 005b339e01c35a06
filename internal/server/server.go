package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cakedelight/internal/config"
	"cakedelight/internal/middleware"
	"cakedelight/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// New はミドルウェアとルートを載せたechoを返す
func New(cfg config.Config, h Handlers, userRepo repository.UserRepository, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	if cfg.FEURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{cfg.FEURL},
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, "Idempotency-Key"},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		}))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	RegisterRoutes(e, h, cfg.JWTSecret, userRepo)
	return e
}

// Start はctxが終わるまで待ってからshutdownする
func Start(ctx context.Context, e *echo.Echo, addr string, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("server shutting down")
	return e.Shutdown(shutdownCtx)
}

package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// 1リクエスト1行のアクセスログ
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// statusを確定させる
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			if uid, ok := c.Get(CtxUserIDKey).(string); ok {
				fields = append(fields, zap.String("user_id", uid))
			}

			switch {
			case res.Status >= 500:
				log.Error("request", append(fields, zap.Error(err))...)
			case res.Status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}

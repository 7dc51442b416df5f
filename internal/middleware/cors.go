package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORSは全エンドポイント共通の許可ヘッダを付ける。
// preflight（OPTIONS）は200で即返す。
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")

			if c.Request().Method == http.MethodOptions {
				return c.String(http.StatusOK, "ok")
			}

			return next(c)
		}
	}
}

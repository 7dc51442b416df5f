package server

import (
	"app/internal/config"
	"app/internal/handler"
	"app/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Newはルーティング済みのechoを組み立てる。
func New(cfg config.Config, paymentH *handler.PaymentHandler, accountH *handler.AccountHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.CORS())
	e.Use(echomw.Recover())

	//OPTIONSはCORS middlewareが200で返すので、ルート未定義でも405にならないようにする
	e.OPTIONS("/*", func(c echo.Context) error { return nil })

	paymentH.RegisterRoutes(e, cfg)
	accountH.RegisterRoutes(e, cfg)

	return e
}

// Startはサーバーを起動する。
func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}

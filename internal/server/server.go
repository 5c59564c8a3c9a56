package server

import (
	"net/http"

	"app/internal/config"
	"app/internal/handler"
	appmw "app/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handlersはルート登録に必要なhandler一式。
type Handlers struct {
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Payment *handler.PaymentHandler
	Product *handler.ProductHandler
	Admin   *handler.AdminHandler
}

// New はechoを組み立ててルートを登録する。
func New(cfg config.Config, logger *zap.Logger, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(appmw.RequestLogger(logger))

	if cfg.FEURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{cfg.FEURL},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		}))
	}

	h.Auth.RegisterRoutes(e)
	h.Profile.RegisterRoutes(e, cfg)
	h.Payment.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Admin.RegisterRoutes(e, cfg)

	return e
}

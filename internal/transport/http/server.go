// Package http provides the HTTP server for the helpdesk orchestrator.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/yxzhu16/helpdesk/internal/service"
	v1 "github.com/yxzhu16/helpdesk/internal/transport/http/v1"
)

// NewServer creates and configures the HTTP server. The request id assigned
// by the middleware doubles as the turn id for chat requests.
func NewServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	// Handlers
	v1Handler := v1.NewHandler(svc)
	v1Handler.RegisterRoutes(e)

	return e
}

package http

import (
	"net/http"

	"github.com/jmehdipour/contact-site/internal/model"
	"github.com/jmehdipour/contact-site/internal/service/contact"
	"github.com/labstack/echo/v4"
)

func healthHandler(svc *contact.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":     "Server is running",
			"timestamp":  svc.Now().UTC().Format(model.ISOMillis),
			"emailReady": svc.Ready(),
		})
	}
}

package http

import (
	"errors"
	"net/http"

	"github.com/jmehdipour/contact-site/internal/model"
	"github.com/jmehdipour/contact-site/internal/repository"
	"github.com/jmehdipour/contact-site/internal/service/contact"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func recentLogsHandler(svc *contact.Service, limit int, logger *zap.Logger) echo.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	return func(c echo.Context) error {
		logs, err := svc.Recent(c.Request().Context(), limit)
		if err != nil {
			if errors.Is(err, repository.ErrNoLogs) {
				return c.JSON(http.StatusOK, map[string]any{
					"logs":    []model.LogEntry{},
					"message": "No logs found for today",
				})
			}
			logger.Error("recent logs read failed", zap.Error(err))

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not retrieve logs"})
		}

		return c.JSON(http.StatusOK, map[string]any{"logs": logs})
	}
}

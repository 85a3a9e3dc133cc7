package http

import (
	"net/http"

	"github.com/jmehdipour/contact-site/internal/model"
	"github.com/jmehdipour/contact-site/internal/service/contact"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	msgThanks      = "Thank you for contacting us! We'll get back to you within 24 hours."
	msgFixErrors   = "Please correct the following errors:"
	msgTechnical   = "We're experiencing technical difficulties. Please try again or call us directly."
	msgInvalidBody = "Invalid request body"
)

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
}

func (r contactReq) submission() model.Submission {
	return model.Submission{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Service: r.Service,
		Message: r.Message,
	}
}

func contactHandler(svc *contact.Service, logger *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var req contactReq
		if err := c.Bind(&req); err != nil {
			logger.Debug("contact: bind failed", zap.Error(err))
			ve := svc.RejectInvalid(ctx, req.submission(), []string{msgInvalidBody})
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":   msgFixErrors,
				"details": ve.Details,
			})
		}

		if _, err := svc.Submit(ctx, req.submission()); err != nil {
			if ve, ok := contact.IsValidation(err); ok {
				return c.JSON(http.StatusBadRequest, map[string]any{
					"error":   msgFixErrors,
					"details": ve.Details,
				})
			}

			// transport details stay in the logs
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error":   msgTechnical,
				"success": false,
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"message": msgThanks,
			"success": true,
		})
	}
}

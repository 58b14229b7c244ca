package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/makkenzo/alttext-service-api/internal/handler/dto"
	"github.com/makkenzo/alttext-service-api/internal/ierr"
	"go.uber.org/zap"
)

func ErrorHandlerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("ErrorHandler")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, body := renderError(err)

		if status >= http.StatusInternalServerError {
			log.Error("Request failed", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
		} else {
			log.Info("Request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
		}

		c.AbortWithStatusJSON(status, body)
	}
}

func renderError(err error) (int, dto.APIErrorResponse) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, dto.APIErrorResponse{
			Error:   "Input validation failed.",
			Details: buildValidationErrors(ve),
		}
	}

	status := ierr.HTTPStatus(err)
	resp := dto.APIErrorResponse{}

	var qe *ierr.QuotaError
	var ue *ierr.UpstreamError

	switch {
	case errors.As(err, &qe):
		resp.Error = "Daily limit reached. Upgrade to Pro for unlimited generations."
		resp.Limit, resp.Count = &qe.Limit, &qe.Count
	case errors.As(err, &ue):
		resp.Error = "Failed to generate alt text: " + ue.Message
	case errors.Is(err, ierr.ErrValidation):
		resp.Error = err.Error()
	case errors.Is(err, ierr.ErrInvalidAPIKey):
		resp.Error = "Invalid or revoked API key."
	case errors.Is(err, ierr.ErrPlanRequired):
		resp.Error = "API access requires a Pro plan."
	case status == http.StatusUnauthorized:
		resp.Error = "Authentication required."
	case errors.Is(err, ierr.ErrImageNotFound):
		resp.Error = "Image not found."
	default:
		status = http.StatusInternalServerError
		resp.Error = "Internal server error."
	}
	return status, resp
}

func buildValidationErrors(ve validator.ValidationErrors) []dto.FieldError {
	details := make([]dto.FieldError, len(ve))
	for i, fe := range ve {
		details[i] = dto.FieldError{
			Field:   fe.Field(),
			Message: getValidationErrorMsg(fe),
		}
	}
	return details
}

func getValidationErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "uuid":
		return fmt.Sprintf("Field '%s' must be a valid UUID", fe.Field())
	case "url":
		return fmt.Sprintf("Field '%s' must be a valid URL", fe.Field())
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of [%s]", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("Field '%s' must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("Field '%s' failed validation on the '%s' tag", fe.Field(), fe.Tag())
	}
}

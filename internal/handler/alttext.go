package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/makkenzo/alttext-service-api/internal/handler/dto"
	"github.com/makkenzo/alttext-service-api/internal/ierr"
	"github.com/makkenzo/alttext-service-api/internal/service"
	"go.uber.org/zap"
)

const bearerScheme = "Bearer"

type AltTextGenerator interface {
	Generate(ctx context.Context, creds service.Credentials, req service.GenerateRequest) (*service.GenerateResult, error)
}

type AltTextHandler struct {
	service       AltTextGenerator
	sessionCookie string
	logger        *zap.Logger
}

func NewAltTextHandler(service AltTextGenerator, sessionCookie string, logger *zap.Logger) *AltTextHandler {
	return &AltTextHandler{
		service:       service,
		sessionCookie: sessionCookie,
		logger:        logger.Named("AltTextHandler"),
	}
}

func (h *AltTextHandler) Generate(c *gin.Context) {
	var req dto.GenerateAltTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			_ = c.Error(err)
		} else {
			_ = c.Error(fmt.Errorf("%w: invalid request body", ierr.ErrValidation))
		}
		return
	}

	res, err := h.service.Generate(c.Request.Context(), h.credentials(c), req.ToServiceRequest())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGenerateAltTextResponse(res))
}

// credentials reads the bearer header and the session cookie. The scheme is
// matched case-insensitively; headers using another scheme are ignored.
func (h *AltTextHandler) credentials(c *gin.Context) service.Credentials {
	var creds service.Credentials

	scheme, token, _ := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if strings.EqualFold(scheme, bearerScheme) {
		creds.HasBearer = true
		creds.BearerToken = strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(h.sessionCookie); err == nil {
		creds.SessionToken = cookie
	}
	return creds
}

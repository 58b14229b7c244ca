package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/alttext-service-api/internal/handler/dto"
	"go.uber.org/zap"
)

// Recovery writes the 500 body itself: a panic unwinds past ErrorHandlerMiddleware,
// so errors attached to the context here would never be rendered.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("Recovery")
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		log.Error(logMsg, zap.String("path", c.FullPath()), zap.Stack("stack"))

		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.APIErrorResponse{Error: "Internal server error."})
	})
}

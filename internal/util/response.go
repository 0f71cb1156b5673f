package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strandhq/strand/backend/internal/errors"
	"github.com/strandhq/strand/backend/internal/logger"
	"go.uber.org/zap"
)

// RespondWithAPIError sends a structured API error response
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.Int("status", apiErr.Status),
		)
	} else {
		logger.Log.Warn("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
		)
	}

	c.JSON(apiErr.Status, gin.H{
		"code":    string(apiErr.Code),
		"message": apiErr.Message,
	})
}

// RespondError maps any error to an HTTP response: APIErrors keep their
// status and code, everything else becomes a 500 with the details logged.
func RespondError(c *gin.Context, err error) {
	if apiErr, ok := err.(*errors.APIError); ok {
		RespondWithAPIError(c, apiErr)
		return
	}
	logger.Log.Error("Unhandled error", zap.Error(err))
	RespondWithAPIError(c, errors.InternalError("internal server error"))
}

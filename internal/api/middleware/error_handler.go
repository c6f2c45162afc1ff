package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"voicescribe/internal/api/errors"
)

// ErrorHandler recovers panics into a JSON internal error
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString(RequestIDKey)

		logger.Error("Recovered from panic",
			"recovered", recovered,
			"request_id", requestID,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)

		c.AbortWithStatusJSON(500, &errors.APIError{
			Kind:      errors.KindInternal,
			Message:   "Internal server error",
			RequestID: requestID,
		})
	})
}

// HandleError writes err as an APIError and aborts the request. Errors with no
// API mapping are logged and reported as internal errors.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	apiErr := errors.FromError(err)
	if apiErr == nil {
		_ = c.Error(err)
		apiErr = errors.NewInternalError("Internal server error")
	}

	resp := *apiErr
	resp.RequestID = c.GetString(RequestIDKey)
	c.AbortWithStatusJSON(resp.HTTPStatus(), &resp)
}

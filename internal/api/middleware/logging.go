package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// StructuredLogging provides structured logging middleware
func StructuredLogging(logger *slog.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		if quietPaths[param.Path] {
			return ""
		}

		var requestID string
		var userID int64
		if param.Keys != nil {
			if id, ok := param.Keys[RequestIDKey].(string); ok {
				requestID = id
			}
			if p, ok := param.Keys[principalKey].(*Principal); ok {
				userID = p.UserID
			}
		}

		level := slog.LevelInfo
		if param.StatusCode >= 500 {
			level = slog.LevelError
		}

		logger.Log(param.Request.Context(), level, "HTTP Request",
			"request_id", requestID,
			"user_id", userID,
			"method", param.Method,
			"path", param.Path,
			"status", param.StatusCode,
			"latency_ms", param.Latency.Milliseconds(),
			"client_ip", param.ClientIP,
			"error", param.ErrorMessage,
		)

		return ""
	})
}

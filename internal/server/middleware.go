// SPDX-License-Identifier: Apache-2.0

package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleetops/laneimport/internal/importapi"
)

const requestIDHeader = "X-Request-ID"

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func bearerAuth(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			respondWithError(c, http.StatusUnauthorized, importapi.ErrorCodeUnauthorized, "missing bearer token", nil)
			c.Abort()
			return
		}
		if expected != "" && subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			respondWithError(c, http.StatusUnauthorized, importapi.ErrorCodeUnauthorized, "invalid bearer token", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// respondWithError sends the standard error envelope.
func respondWithError(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, importapi.APIError{Code: code, Message: message, Details: details})
}

package delivery

import (
	"net/http"
	"strings"
	"time"

	"shop_service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	requestIDKey = "X-Request-ID"
)

type TokenParser interface {
	Parse(raw string) (userID int, role string, err error)
}

// RequestID echoes the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDKey, id)
		c.Next()
	}
}

func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status_code": statusCode,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"remote_ip":   c.ClientIP(),
			"latency_ms":  time.Since(startTime).Milliseconds(),
		})
		if reqID := c.Writer.Header().Get(requestIDKey); reqID != "" {
			entry = entry.WithField("request_id", reqID)
		}
		if userID, ok := c.Get(ctxUserID); ok {
			entry = entry.WithField("user_id", userID)
		}

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case statusCode >= 500:
			entry.Error("Request completed with server error")
		case statusCode >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// Authenticate requires a valid bearer token and stores the caller's id and
// role on the context.
func Authenticate(tokens TokenParser, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Middleware: Authorization header is missing")
			ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			log.Warn("Middleware: Invalid Authorization header format")
			ErrorResponse(c, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}

		userID, role, err := tokens.Parse(parts[1])
		if err != nil {
			log.Warnf("Middleware: Rejected token: %v", err)
			ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

func RequireAdmin(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != string(domain.RoleAdmin) {
			log.Warnf("Middleware: User %d denied admin route %s", c.GetInt(ctxUserID), c.FullPath())
			ErrorResponse(c, http.StatusForbidden, "Admin role required")
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) int {
	return c.GetInt(ctxUserID)
}

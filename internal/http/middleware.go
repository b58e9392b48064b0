package http

import (
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"task-tracker/internal/auth"
	"task-tracker/internal/service"
)

const (
	requestIDHeader = "X-Request-ID"

	ctxRequestIDKey = "request_id"
	ctxUserIDKey    = "user_id"
)

// publicPrefixes bypass the gate. Entries ending in "/" match a subtree,
// the others match the exact path or anything below it.
var publicPrefixes = []string{
	"/api/auth/",
	"/api/health",
	"/swagger/",
	"/v3/api-docs",
}

func isPublicPath(p string) bool {
	clean := path.Clean("/" + p)
	for _, prefix := range publicPrefixes {
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(clean+"/", prefix) {
				return true
			}
			continue
		}
		if clean == prefix || strings.HasPrefix(clean, prefix+"/") {
			return true
		}
	}
	return false
}

// Gate authenticates every non-public request from its bearer token and
// attaches the resolved identity to the request context. Failures abort with
// one uniform 401.
func (h *Handler) Gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			h.unauthorized(c, "missing bearer token")
			return
		}

		principal, err := h.tokens.Parse(raw, h.now())
		if err != nil {
			h.unauthorized(c, err.Error())
			return
		}

		identity, err := h.users.ResolveIdentity(c.Request.Context(), principal.Subject)
		if err != nil {
			if errors.Is(err, service.ErrAccountNotFound) {
				h.unauthorized(c, "account no longer exists")
				return
			}
			h.logger.WithField(ctxRequestIDKey, c.GetString(ctxRequestIDKey)).Errorf("resolve identity: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Set(ctxUserIDKey, identity.UserID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func (h *Handler) unauthorized(c *gin.Context, cause string) {
	h.logger.WithFields(logrus.Fields{
		ctxRequestIDKey: c.GetString(ctxRequestIDKey),
		"path":          c.Request.URL.Path,
	}).Debugf("unauthorized: %s", cause)
	c.Header("WWW-Authenticate", `Bearer realm="task-tracker"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func (h *Handler) requireStorage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.storage == nil || h.manager == nil || h.bucket == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": service.ErrStorageDisabled.Error()})
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, WWW-Authenticate")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ctxRequestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

func accessLogMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			ctxRequestIDKey: c.GetString(ctxRequestIDKey),
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"status":        c.Writer.Status(),
			"latency":       time.Since(start).String(),
			"ip":            c.ClientIP(),
		}
		if userID, ok := c.Get(ctxUserIDKey); ok {
			fields[ctxUserIDKey] = userID
		}
		logger.WithFields(fields).Info("HTTP request")
	}
}

func recoveryMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithFields(logrus.Fields{
					ctxRequestIDKey: c.GetString(ctxRequestIDKey),
					"method":        c.Request.Method,
					"path":          c.Request.URL.Path,
				}).Errorf("panic recovered: %v", rec)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

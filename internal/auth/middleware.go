package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Roeeht/Agent-Messiah/pkg/logger"
)

const bearerPrefix = "Bearer "

// RequireAccessToken verifies the bearer token, stores the operator identity
// in the request context and tags the request logger with it. Role checks
// live in internal/rbac.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		tok, found := strings.CutPrefix(raw, bearerPrefix)
		if !found || tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := m.Verify(tok, time.Now())
		if err != nil {
			logger.FromGin(c).Warn("operator token rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		id := Identity{UserID: claims.UserID, Role: claims.Role}
		log := logger.FromGin(c).With("operator", id.UserID, "role", id.Role)
		c.Set("logger", log)

		ctx := WithIdentity(c.Request.Context(), id)
		c.Request = c.Request.WithContext(logger.With(ctx, log))
		c.Next()
	}
}

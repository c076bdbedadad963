package middleware

import (
	"net/http"
	"strings"

	"nexulsly-backend/internal/delivery/http/response"
	"nexulsly-backend/internal/domain"
	"nexulsly-backend/pkg/auth"
	"nexulsly-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// AdminAuth requires an HS256 bearer token with role=admin. With an empty
// secret the route stays open.
func AdminAuth(secret string, audit *security.SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			rejectAdmin(c, audit, "missing bearer token")
			return
		}

		claims, err := auth.ParseAdminToken(secret, strings.TrimSpace(tokenString))
		if err != nil {
			rejectAdmin(c, audit, err.Error())
			return
		}

		c.Set(string(domain.KeyAdminSub), claims.Subject)
		c.Next()
	}
}

func rejectAdmin(c *gin.Context, audit *security.SecurityLogger, reason string) {
	audit.LogUnauthorizedAccess(
		c.Request.Context(),
		c.ClientIP(),
		c.GetHeader("User-Agent"),
		c.GetString("RequestID"),
		c.FullPath(),
		reason,
	)
	response.Error(c, http.StatusUnauthorized, "Unauthorized", nil)
	c.Abort()
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// CORSMiddleware adds CORS headers to every response. allowedOrigin is "*" or
// a comma separated list of exact origins. Preflight requests end here with
// 200 and an empty body.
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	wildcard := allowedOrigin == "" || allowedOrigin == "*"
	origins := make(map[string]bool)
	if !wildcard {
		for _, o := range strings.Split(allowedOrigin, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins[o] = true
			}
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origins[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		default:
			// Unlisted origins get no CORS headers and the browser blocks the response
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", corsAllowMethods)
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openctf/arena/internal/auth"
	"github.com/openctf/arena/internal/config"
	"github.com/openctf/arena/internal/util"
)

// corsHeaders and corsMethods cover everything the browser client sends:
// JSON bodies with a Bearer token, plus the WebSocket upgrade preflight.
const (
	corsHeaders = "Content-Type, Authorization, Accept, Origin, Cache-Control, X-Requested-With"
	corsMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// CORSMiddleware answers cross-origin requests for origins listed in the
// config. With no origins configured it is a no-op, which keeps same-origin
// deployments free of CORS headers entirely.
func CORSMiddleware(cfg config.CORS) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(cfg.AllowedOrigins) == 0 {
			c.Next()
			return
		}

		allowOrigin := matchOrigin(cfg.AllowedOrigins, c.Request.Header.Get("Origin"))
		if allowOrigin == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", corsHeaders)
		h.Set("Access-Control-Allow-Methods", corsMethods)
		if allowOrigin != "*" {
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func matchOrigin(allowed []string, origin string) string {
	for _, o := range allowed {
		if o == "*" {
			return "*"
		}
		if o == origin {
			return origin
		}
	}
	return ""
}

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			util.Error(c, http.StatusUnauthorized, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			util.Error(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := auth.ValidateJWT(tokenString, secret)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		c.Set("userID", claims.Subject)
		c.Next()
	}
}

// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/openlot/openlot-backend/internal/i18n"
	"github.com/openlot/openlot-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired extracts the calling principal from a bearer JWT. Every
// lifecycle operation needs a principal; capability checks happen later in
// the service layer against the X-Capability header.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.GetHeader("Accept-Language")
		if lang == "" {
			lang = "en"
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthRequired),
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthInvalidToken),
			})
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthTokenExpired),
			})
			c.Abort()
			return
		}

		// Set principal info in context
		c.Set("principal_id", claims.PrincipalID)
		c.Set("display_name", claims.DisplayName)
		c.Set("role", claims.Role)
		c.Next()
	}
}

func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			c.Next()
			return
		}

		c.Set("principal_id", claims.PrincipalID)
		c.Set("display_name", claims.DisplayName)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// Capability returns the capability secret presented with the request, if
// any. Secrets ride the X-Capability header so they never land in URLs or
// access logs.
func Capability(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-Capability"))
}

package middleware

import (
	"log"
	"net/http"
	"strings"

	"bazario/api/utils"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest pulls a JWT from the jwt_token cookie or the
// Authorization header, stripping any Bearer prefix. Empty string if absent.
func tokenFromRequest(c *gin.Context) string {
	if tokenString, err := c.Cookie("jwt_token"); err == nil && tokenString != "" {
		return tokenString
	}
	tokenString := c.GetHeader("Authorization")
	return strings.TrimPrefix(tokenString, "Bearer ")
}

// AuthRequired rejects requests without a valid token and exposes the
// authenticated identity on the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			log.Println("AuthRequired: No JWT token found in cookie or header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Access token required"})
			return
		}

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			log.Printf("AuthRequired: Invalid JWT token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

// OptionalAuth populates the user identity when a valid token is present
// and continues anonymously otherwise. It never rejects a request.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString != "" {
			if claims, err := utils.ValidateJWT(tokenString); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("user_email", claims.Email)
				c.Set("user_role", claims.Role)
			}
		}
		c.Next()
	}
}

// UserIDFromContext returns the authenticated user ID, or nil for
// anonymous requests.
func UserIDFromContext(c *gin.Context) *int64 {
	v, ok := c.Get("user_id")
	if !ok {
		return nil
	}
	id, ok := v.(int64)
	if !ok {
		return nil
	}
	return &id
}

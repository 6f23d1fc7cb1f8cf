package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const userIDKey = "actingUserID"

// IdentityMiddleware extracts the acting user id from the X-User-ID
// header. Token verification happens upstream at the gateway; requests
// arriving without an identity are rejected.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// ActingUserID returns the user id set by IdentityMiddleware.
func ActingUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const contextUserKey = "auth_username"

// AuthMiddleware checks for a valid session cookie and stores the
// session's username in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Missing session token"})
			c.Abort()
			return
		}

		username, ok := activeSessions.lookup(token)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid session token"})
			c.Abort()
			return
		}

		c.Set(contextUserKey, username)
		c.Next()
	}
}

// CurrentUser returns the username of the authenticated session, or ""
// when the route is not behind AuthMiddleware.
func CurrentUser(c *gin.Context) string {
	if v, ok := c.Get(contextUserKey); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

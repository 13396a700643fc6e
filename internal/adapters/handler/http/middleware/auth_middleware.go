package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lucagrillo/habitgrid/internal/core/services"
)

// ContextUserIDKey is where the authenticated user's id lands in the gin
// context. Handlers read it back through GetUserID.
const ContextUserIDKey = "userID"

// AuthMiddleware validates the bearer token on every request of a protected
// group and stores the subject's user id in the context.
func AuthMiddleware(tokenService *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, authErr := bearerToken(c)
		if authErr != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authErr})
			return
		}

		userID, err := tokenService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// bearerToken extracts the raw token from the Authorization header. The
// second return value is a client-facing error message, empty on success.
func bearerToken(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", "authorization header required"
	}

	fields := strings.Fields(header)
	if len(fields) < 2 || fields[0] != "Bearer" {
		return "", "invalid authorization header format"
	}
	return fields[1], ""
}

// GetUserID returns the user id set by AuthMiddleware, if any.
func GetUserID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := id.(string)
	return idStr, ok
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenContextKey is a gin context key for the caller's bearer token.
const TokenContextKey = "authToken"

// AuthRequired extracts the bearer credential from the Authorization header
// or the auth cookie and stores it for forwarding to the backend. The proxy
// never validates the token; the backend owns authorization.
func AuthRequired(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(TokenContextKey, token)
		c.Next()
	}
}

// Token returns the bearer token stored by AuthRequired, empty when absent.
func Token(c *gin.Context) string {
	val, ok := c.Get(TokenContextKey)
	if !ok {
		return ""
	}
	token, _ := val.(string)
	return token
}

func extractToken(c *gin.Context, cookieName string) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

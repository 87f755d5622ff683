package middleware

import (
	"net/http"
	"strings"

	"tow-dispatch-api/services"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// TokenVerifier checks a bearer token. *services.AuthService implements it.
type TokenVerifier interface {
	Verify(token string) (services.Identity, error)
}

// AuthRequired validates the bearer token and stores the caller's identity
// in the context.
func AuthRequired(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, err := v.Verify(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// GetIdentity returns the caller set by AuthRequired, or the zero Identity.
func GetIdentity(c *gin.Context) services.Identity {
	val, ok := c.Get(identityKey)
	if !ok {
		return services.Identity{}
	}
	id, _ := val.(services.Identity)
	return id
}

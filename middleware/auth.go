package middleware

import (
	"errors"
	"net/http"
	"strings"

	"route-optimization-api/models"
	"route-optimization-api/services"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// RequireAuth validates the bearer token and stores the identity on the
// request context. Missing, malformed, or expired tokens all end the
// request with 401.
func RequireAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authorization header must be a bearer token"})
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			detail := "invalid token"
			if errors.Is(err, services.ErrTokenExpired) {
				detail = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin gates admin-only endpoints. It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "admin privileges required"})
			return
		}
		c.Next()
	}
}

package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/services"
)

// AuthMiddleware validates session tokens and stores the caller's identity
// on the Gin context for downstream permission checks.
type AuthMiddleware struct {
	JWTService *services.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *services.JWTService) *AuthMiddleware {
	return &AuthMiddleware{JWTService: jwtService}
}

// RequireAuth validates the bearer token and sets user_id/user_email/user_role
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		token, err := m.JWTService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := m.JWTService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)

		log.Printf("AUTH SUCCESS - User: %s (%s)", claims.Email, claims.UserID)
		c.Next()
	}
}

package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"nitpickr-api/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by the auth middlewares.
const (
	KeyUserID = "user_id"
	KeyEmail  = "email"
	KeyRole   = "role"
)

// CurrentUserID returns the authenticated user's id, if any.
func CurrentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(KeyUserID)
	return id, id != ""
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	jwtKey := []byte(config.JWT_SECRET)
	if len(jwtKey) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims jwt.MapClaims) bool {
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return false
	}
	c.Set(KeyUserID, userID)
	if email, ok := claims["email"].(string); ok {
		c.Set(KeyEmail, email)
	}
	if role, ok := claims["role"].(string); ok {
		c.Set(KeyRole, role)
	}
	return true
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if authHeader == "" || tokenString == authHeader {
		return "", false
	}
	return strings.TrimSpace(tokenString), true
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token malformed"})
			return
		}

		claims, err := parseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if !setClaims(c, claims) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and lets
// anonymous requests through.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := parseToken(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(KeyRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Role not found in token"})
			return
		}
		if value != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}

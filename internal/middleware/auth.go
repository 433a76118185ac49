package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/pkg/jwt"
)

// JWTAuth JWT authentication middleware
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.UnauthorizedResponse(c, "Missing authorization header")
			c.Abort()
			return
		}

		// 2. Parse Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.UnauthorizedResponse(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		tokenString := parts[1]

		// 3. Verify token
		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.UnauthorizedResponse(c, "Token expired")
			} else {
				common.UnauthorizedResponse(c, "Invalid token")
			}
			c.Abort()
			return
		}

		// 4. Store user info in context
		c.Set("userID", claims.UserID)
		c.Set("userName", claims.Name)

		c.Next()
	}
}

// GetUserID extracts the authenticated user id from context
func GetUserID(c *gin.Context) int64 {
	userID, exists := c.Get("userID")
	if !exists {
		return 0
	}
	if id, ok := userID.(int64); ok {
		return id
	}
	return 0
}

// GetUserName extracts the authenticated user name from context
func GetUserName(c *gin.Context) string {
	name, exists := c.Get("userName")
	if !exists {
		return ""
	}
	if str, ok := name.(string); ok {
		return str
	}
	return ""
}

package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/akinfemi/timetable/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

// Auth verifies the bearer token from the session provider and stashes the
// acting identity on the request context. The role claim is mapped to the
// closed Role set; unknown roles become Unauthorized and are turned away by
// the services, not here.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token not provided"})
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		userID, _ := claims["sub"].(string)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing subject claim"})
			return
		}
		roleStr, _ := claims["role"].(string)

		c.Set(identityKey, model.Identity{
			UserID: userID,
			Role:   model.ParseRole(roleStr),
		})
		c.Next()
	}
}

func identityFrom(c *gin.Context) model.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{Role: model.RoleUnauthorized}
	}
	identity, ok := v.(model.Identity)
	if !ok {
		return model.Identity{Role: model.RoleUnauthorized}
	}
	return identity
}

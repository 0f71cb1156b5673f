package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Auth validates the identity provider's bearer token and stores the
// subject as the opaque user id the rest of the service trusts.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := userIDFromRequest(c, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// OptionalAuth resolves the user id when a valid token is present but lets
// anonymous requests through. Feed endpoints use it: anonymous readers get
// pages without personalization fields.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, err := userIDFromRequest(c, secret); err == nil {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}

func userIDFromRequest(c *gin.Context, secret []byte) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == header {
		return "", fmt.Errorf("malformed authorization header")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token missing subject")
	}
	return sub, nil
}

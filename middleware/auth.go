package middleware

import (
	"strings"

	"penaltybox-backend/services"
	"penaltybox-backend/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and stores user_id and is_admin
// in the request context.
func AuthRequired(secret string, tokens *services.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			utils.Unauthorized(c, "Missing or malformed Authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		if tokens.IsRevoked(claims.UserID, claims.IssuedAt) {
			utils.Unauthorized(c, "Token has been revoked")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("is_admin", claims.IsAdmin)
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ripple/token"
)

// ActorKey is where the verified actor id is stored on the request context.
const ActorKey = "actorId"

// Auth verifies the bearer token with the issuer and resolves the actor
// identity every downstream handler relies on.
func Auth(issuer *token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"msg":     "No authorization token provided.",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"msg":     "Authorization header format should be: Bearer <token>.",
			})
			c.Abort()
			return
		}

		actorID, err := issuer.Verify(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"msg":     err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(ActorKey, actorID)
		c.Next()
	}
}

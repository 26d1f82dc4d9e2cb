package middleware

import (
	"strings"

	"github.com/croftbit/taskboard/internal/constants"
	apierrors "github.com/croftbit/taskboard/internal/errors"
	"github.com/croftbit/taskboard/internal/services"
	"github.com/gin-gonic/gin"
)

// RequireAuth checks the bearer credential and stores the verified user id
// in the request context.
func RequireAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, err := tokens.Verify(token)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(uint64)
	return id, ok
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
// Review, settings, attendance and export routes use
// RequireRole(models.RoleAdmin).
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		role, _ := roleVal.(models.Role)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

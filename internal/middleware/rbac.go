package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/acadflow/approval-api/internal/models"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
	"github.com/acadflow/approval-api/pkg/response"
)

// RequireRoles blocks requests whose token role is not on the allow-list.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireApprover allows any role in the approval chain.
func RequireApprover() gin.HandlerFunc {
	return RequireRoles(models.RoleClassTeacher, models.RoleFaculty, models.RoleHod, models.RoleCoe)
}

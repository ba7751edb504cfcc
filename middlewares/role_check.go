package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/utils"
)

// RequireRole allows only the listed roles. The owner passes every check.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}
		role, _ := userRole.(string)
		if role == models.RoleOwner {
			c.Next()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		required := models.RoleOwner
		if len(roles) > 0 {
			required = roles[0]
		}
		utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%s access required", required))
		c.Abort()
	}
}

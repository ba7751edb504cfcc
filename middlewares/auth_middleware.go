package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/velvethour/venue-app/utils"
)

// AuthMiddleware validates the bearer token and exposes the caller's staff
// id and role to handlers. The token is also accepted as a query parameter
// for websocket upgrades.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authorization token missing"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(token, "Bearer ")
		claims, err := utils.ParseToken(tokenString)
		if err != nil || claims == nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
			c.Abort()
			return
		}
		if claims.StaffID == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid staff id in token"))
			c.Abort()
			return
		}

		c.Set("staff_id", claims.StaffID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velvethour/venue-app/services"
	"github.com/velvethour/venue-app/utils"
)

var (
	ErrNoPermission  = errors.New("you do not have permission for this action")
	errInvalidTable  = errors.New("table number out of range")
	errComposeTarget = errors.New("provide exactly one of member_id or staff_id")
)

// respondServiceError maps the service error taxonomy onto HTTP codes:
// validation 400, conflict 409, not-found 404.
func respondServiceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	var ce *services.ConflictError
	var ne *services.NotFoundError

	switch {
	case errors.As(err, &ve):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &ce):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.As(err, &ne):
		utils.RespondError(c, http.StatusNotFound, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

func currentRole(c *gin.Context) string {
	v, _ := c.Get("role")
	role, _ := v.(string)
	return role
}

func currentStaffID(c *gin.Context) string {
	v, _ := c.Get("staff_id")
	id, _ := v.(string)
	return id
}

package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/velvethour/venue-app/services"
	"github.com/velvethour/venue-app/utils"
	"gorm.io/gorm"
)

type FloorController struct {
	DB    *gorm.DB
	Floor *services.FloorPlan
}

func NewFloorController(db *gorm.DB, floor *services.FloorPlan) *FloorController {
	return &FloorController{DB: db, Floor: floor}
}

// GetFloor returns the full derived floor plan, tables 1..10.
func (fc *FloorController) GetFloor(c *gin.Context) {
	snapshot, err := fc.Floor.Snapshot()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Floor plan", snapshot)
}

// GetTableStatus returns one table's derived status.
func (fc *FloorController) GetTableStatus(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("table_num"))
	if err != nil || n < 1 || n > services.FloorTableCount {
		utils.RespondError(c, http.StatusBadRequest, errInvalidTable)
		return
	}

	st, err := fc.Floor.TableStatus(n)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status", st)
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/services"
	"github.com/velvethour/venue-app/utils"
	"gorm.io/gorm"
)

type SaleController struct {
	DB       *gorm.DB
	Pipeline *services.SalePipeline
}

func NewSaleController(db *gorm.DB, pipeline *services.SalePipeline) *SaleController {
	return &SaleController{DB: db, Pipeline: pipeline}
}

// GetSales returns the read-only sales log, newest first.
func (sc *SaleController) GetSales(c *gin.Context) {
	var sales []models.Sale
	q := sc.DB.Order("purchased_at DESC")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&sales).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sales log", sales)
}

// IssueComp marks a member as comped without going through the reservation
// flow. Owner only (enforced at the route).
func (sc *SaleController) IssueComp(c *gin.Context) {
	var body struct {
		Type      string `json:"type" binding:"required"` // ticket, vip-ticket, table
		Recipient string `json:"recipient" binding:"required"`
		Note      string `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	comp, err := sc.Pipeline.IssueComp(body.Type, body.Recipient, body.Note, currentStaffID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Comp issued", comp)
}

// GetComps lists comps issued tonight.
func (sc *SaleController) GetComps(c *gin.Context) {
	var comps []models.Comp
	if err := sc.DB.Order("created_at DESC").Find(&comps).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Comps issued", comps)
}

// GetCalendar returns annotations for one date key (YYYY-MM-DD).
func (sc *SaleController) GetCalendar(c *gin.Context) {
	var events []models.CalendarEvent
	if err := sc.DB.Where("date_key = ?", c.Param("date_key")).
		Order("created_at ASC").Find(&events).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Calendar entries", events)
}

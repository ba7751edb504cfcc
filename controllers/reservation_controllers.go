package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velvethour/venue-app/live"
	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/services"
	"github.com/velvethour/venue-app/utils"
	"gorm.io/gorm"
)

type ReservationController struct {
	DB        *gorm.DB
	Lifecycle *services.ReservationLifecycle
}

func NewReservationController(db *gorm.DB, lifecycle *services.ReservationLifecycle) *ReservationController {
	return &ReservationController{DB: db, Lifecycle: lifecycle}
}

// GetReservations lists the queue. Managers and vip-hosts see confirmed and
// sat only; the owner also sees pending requests.
func (rc *ReservationController) GetReservations(c *gin.Context) {
	q := rc.DB.Order("requested_at ASC")
	if currentRole(c) != models.RoleOwner {
		q = q.Where("status IN ?", []string{models.ReservationConfirmed, models.ReservationSat})
	}
	// The status filter narrows within the caller's visible slice, it never
	// widens it.
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var reservations []models.Reservation
	if err := q.Find(&reservations).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

// CreateManual is the staff-entered reservation path (enters confirmed).
func (rc *ReservationController) CreateManual(c *gin.Context) {
	var body struct {
		Name      string  `json:"name" binding:"required"`
		Phone     *string `json:"phone"`
		PartySize int     `json:"party_size" binding:"required"`
		Occasion  string  `json:"occasion"`
		Notes     string  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := rc.Lifecycle.ManualEntry(body.Name, body.Phone, body.PartySize, body.Occasion, body.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.Message{Event: live.EventReservationUpdate, Data: res})
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", res)
}

// WalkIn seats-path shortcut: synthesized directly in confirmed state.
func (rc *ReservationController) WalkIn(c *gin.Context) {
	var body struct {
		Name  string  `json:"name" binding:"required"`
		Phone *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := rc.Lifecycle.WalkIn(body.Name, body.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.Message{Event: live.EventReservationUpdate, Data: res})
	utils.RespondJSON(c, http.StatusCreated, "Walk-in created", res)
}

// Accept confirms a pending reservation, optionally with an advisory table.
func (rc *ReservationController) Accept(c *gin.Context) {
	var body struct {
		Table *string `json:"table"`
	}
	// Body is optional: accept with no table hint is legal.
	_ = c.ShouldBindJSON(&body)

	res, err := rc.Lifecycle.Accept(c.Param("reservation_id"), body.Table)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.Message{Event: live.EventReservationUpdate, Data: res})
	utils.RespondJSON(c, http.StatusOK, "Reservation accepted", res)
}

// Decline removes a pending reservation and its calendar entry.
func (rc *ReservationController) Decline(c *gin.Context) {
	id := c.Param("reservation_id")
	if err := rc.Lifecycle.Decline(id); err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.Message{Event: live.EventReservationUpdate, Data: gin.H{"reservation_id": id, "status": "declined"}})
	utils.RespondJSON(c, http.StatusOK, "Reservation declined", gin.H{"reservation_id": id})
}

// SelectTable stages a candidate table for the seat workflow.
func (rc *ReservationController) SelectTable(c *gin.Context) {
	var body struct {
		Table int `json:"table" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := rc.Lifecycle.SelectTable(c.Param("reservation_id"), body.Table); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table selected", gin.H{
		"reservation_id": c.Param("reservation_id"),
		"table":          body.Table,
	})
}

// Seat marks the reservation as sat on its staged table.
func (rc *ReservationController) Seat(c *gin.Context) {
	var body struct {
		WaitressID string `json:"waitress_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := rc.Lifecycle.Seat(c.Param("reservation_id"), body.WaitressID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.Message{Event: live.EventReservationUpdate, Data: res})
	live.Broadcast(live.Message{Event: live.EventFloorUpdate, Data: gin.H{"table": res.TableAssigned}})
	utils.RespondJSON(c, http.StatusOK, "Table sat", res)
}

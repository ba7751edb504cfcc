package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/velvethour/venue-app/live"
	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/services"
	"github.com/velvethour/venue-app/utils"
	"gorm.io/gorm"
)

// msgDestination is one of the compose buttons members see: each pins the
// thread type, display tag and recipient set.
type msgDestination struct {
	Tag            string
	Type           string
	RecipientRoles models.RoleList
}

var memberMsgDestinations = map[string]msgDestination{
	"owner": {
		Tag:            models.ThreadTagGeneral,
		Type:           models.ThreadTypePrivate,
		RecipientRoles: models.RoleList{models.RoleOwner},
	},
	"management": {
		Tag:            models.ThreadTagManagement,
		Type:           models.ThreadTypeManagement,
		RecipientRoles: models.RoleList{models.RoleOwner, models.RoleManager, models.RoleVIPHost},
	},
	"waitstaff": {
		Tag:            models.ThreadTagFloor,
		Type:           models.ThreadTypeFloor,
		RecipientRoles: models.RoleList{models.RoleWaitress, models.RoleBarback, models.RoleOwner},
	},
	"security": {
		Tag:            models.ThreadTagSecurity,
		Type:           models.ThreadTypeSecurity,
		RecipientRoles: models.RoleList{models.RoleDoorman, models.RoleManager, models.RoleVIPHost, models.RoleOwner},
	},
}

type MemberController struct {
	DB        *gorm.DB
	Routing   *services.RoutingEngine
	Lifecycle *services.ReservationLifecycle
	FollowUp  *services.FollowUpScheduler
}

func NewMemberController(db *gorm.DB, routing *services.RoutingEngine, lifecycle *services.ReservationLifecycle, followUp *services.FollowUpScheduler) *MemberController {
	return &MemberController{DB: db, Routing: routing, Lifecycle: lifecycle, FollowUp: followUp}
}

// CreateMember registers a member record.
func (mc *MemberController) CreateMember(c *gin.Context) {
	var body struct {
		Name  string  `json:"name" binding:"required"`
		Phone *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	member := models.Member{
		ID:    utils.NewID("MBR"),
		Name:  body.Name,
		Phone: body.Phone,
	}
	if err := mc.DB.Create(&member).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Member created", member)
}

// SendMessage routes a member message to staff. A destination button pins
// the thread type and recipients; free text is keyword-classified instead.
func (mc *MemberController) SendMessage(c *gin.Context) {
	var body struct {
		Text        string `json:"text" binding:"required"`
		Destination string `json:"destination"` // owner, management, waitstaff, security
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var member models.Member
	if err := mc.DB.First(&member, "id = ?", c.Param("member_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var tag, forceType string
	var roles models.RoleList
	if dest, ok := memberMsgDestinations[body.Destination]; ok {
		tag = dest.Tag
		forceType = dest.Type
		roles = dest.RecipientRoles
	} else {
		tag = services.AutoClassify(body.Text)
		roles = services.DefaultRecipientsForTag(tag)
	}

	now := time.Now()
	log := models.MemberMessage{
		MemberID: member.ID,
		From:     models.SenderMember,
		Kind:     models.MemberMessageChat,
		Text:     body.Text,
		SentAt:   now,
	}
	if err := mc.DB.Create(&log).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to log member message: %v", err)
	}

	thread, err := mc.Routing.AppendMemberMessage(&member, body.Text, tag, roles, models.SenderMember, forceType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	event := live.EventThreadUpdate
	if thread.IsSecurityAlert {
		event = live.EventSecurityAlert
	}
	live.Broadcast(live.Message{Event: event, Data: thread})
	utils.RespondJSON(c, http.StatusCreated, "Message sent", thread)
}

// GetLog returns the member's concierge message log, oldest first.
func (mc *MemberController) GetLog(c *gin.Context) {
	var messages []models.MemberMessage
	if err := mc.DB.Where("member_id = ?", c.Param("member_id")).
		Order("sent_at ASC, id ASC").Find(&messages).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Member messages", messages)
}

// RequestReservation files a pending reservation from the member.
func (mc *MemberController) RequestReservation(c *gin.Context) {
	var body struct {
		DateKey     string `json:"date_key" binding:"required"`
		EventName   string `json:"event_name"`
		PartySize   int    `json:"party_size" binding:"required"`
		Occasion    string `json:"occasion"`
		Notes       string `json:"notes"`
		PromoterRef string `json:"ref"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var member models.Member
	if err := mc.DB.First(&member, "id = ?", c.Param("member_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	res, err := mc.Lifecycle.Request(services.ReservationRequest{
		MemberID:    &member.ID,
		MemberName:  member.Name,
		MemberPhone: member.Phone,
		DateKey:     body.DateKey,
		EventName:   body.EventName,
		PartySize:   body.PartySize,
		Occasion:    body.Occasion,
		Notes:       body.Notes,
		PromoterRef: body.PromoterRef,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.Message{Event: live.EventReservationUpdate, Data: res})
	utils.RespondJSON(c, http.StatusCreated, "Reservation requested", res)
}

// RespondFollowUp handles the member's response to a morning-after prompt.
func (mc *MemberController) RespondFollowUp(c *gin.Context) {
	var body struct {
		Response string `json:"response" binding:"required"` // positive, message-owner
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := mc.FollowUp.RespondToFollowUp(c.Param("member_id"), body.Response); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Response recorded", gin.H{
		"member_id": c.Param("member_id"),
		"response":  body.Response,
	})
}

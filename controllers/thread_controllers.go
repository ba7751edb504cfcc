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

type ThreadController struct {
	DB      *gorm.DB
	Routing *services.RoutingEngine
}

func NewThreadController(db *gorm.DB, routing *services.RoutingEngine) *ThreadController {
	return &ThreadController{DB: db, Routing: routing}
}

// GetThreads returns the caller's visible slice of the inbox.
func (tc *ThreadController) GetThreads(c *gin.Context) {
	role := currentRole(c)
	staffID := currentStaffID(c)

	var section *string
	var staff models.Staff
	if err := tc.DB.First(&staff, "id = ?", staffID).Error; err == nil {
		section = staff.Section
	}

	threads, err := tc.Routing.VisibleThreads(role, staffID, section)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Visible threads", threads)
}

// ReplyThread appends a staff reply to a thread the caller can see.
func (tc *ThreadController) ReplyThread(c *gin.Context) {
	role := currentRole(c)
	if !services.CapabilityFor(role).CanReply {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var body struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var staff models.Staff
	tc.DB.First(&staff, "id = ?", currentStaffID(c))

	thread, err := tc.Routing.Reply(c.Param("thread_id"), staff.Name, body.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.Message{Event: live.EventThreadUpdate, Data: thread})
	utils.RespondJSON(c, http.StatusOK, "Reply sent", thread)
}

// MoveThread re-routes a thread to a new structural type. Owner only.
func (tc *ThreadController) MoveThread(c *gin.Context) {
	if !services.CapabilityFor(currentRole(c)).CanMove {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var body struct {
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	thread, err := tc.Routing.MoveThread(c.Param("thread_id"), body.Type)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.Message{Event: live.EventThreadUpdate, Data: thread})
	utils.RespondJSON(c, http.StatusOK, "Thread moved to "+body.Type, thread)
}

// RetagThread changes the display tag. Manager / vip-host capability.
func (tc *ThreadController) RetagThread(c *gin.Context) {
	if !services.CapabilityFor(currentRole(c)).CanRetag {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var body struct {
		Tag string `json:"tag" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	thread, err := tc.Routing.RetagThread(c.Param("thread_id"), body.Tag)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.Message{Event: live.EventThreadUpdate, Data: thread})
	utils.RespondJSON(c, http.StatusOK, "Thread retagged to "+body.Tag, thread)
}

// CreateSecurityAlert opens a standalone security thread. Any staff member
// can raise one; doormen have this as their primary compose path.
func (tc *ThreadController) CreateSecurityAlert(c *gin.Context) {
	var body struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var staff models.Staff
	tc.DB.First(&staff, "id = ?", currentStaffID(c))

	thread, err := tc.Routing.CreateSecurityAlert(staff.Name, body.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.BroadcastToRoles(
		live.Message{Event: live.EventSecurityAlert, Data: thread},
		thread.RecipientRoles,
	)
	utils.RespondJSON(c, http.StatusCreated, "Security alert sent", thread)
}

// Compose starts (or continues) a thread to a member. Owner, manager and
// vip-host only.
func (tc *ThreadController) Compose(c *gin.Context) {
	if !services.CapabilityFor(currentRole(c)).CanInitiate {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var body struct {
		MemberID string `json:"member_id"`
		StaffID  string `json:"staff_id"`
		Text     string `json:"text" binding:"required"`
		Private  bool   `json:"private"` // owner 1:1, otherwise member's typed thread
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if (body.MemberID == "") == (body.StaffID == "") {
		utils.RespondError(c, http.StatusBadRequest, errComposeTarget)
		return
	}

	// Staff target: the owner's 1:1 channel with that staff member.
	if body.StaffID != "" {
		var staff models.Staff
		if err := tc.DB.First(&staff, "id = ?", body.StaffID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		thread, err := tc.Routing.AppendStaffPrivateMessage(&staff, body.Text, models.SenderStaff)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		live.BroadcastToRoles(
			live.Message{Event: live.EventThreadUpdate, Data: thread},
			[]string{models.RoleOwner, staff.Role},
		)
		utils.RespondJSON(c, http.StatusCreated, "Message sent", thread)
		return
	}

	var member models.Member
	if err := tc.DB.First(&member, "id = ?", body.MemberID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	forceType := ""
	tag := services.AutoClassify(body.Text)
	if body.Private {
		forceType = models.ThreadTypePrivate
		tag = models.ThreadTagGeneral
	}
	thread, err := tc.Routing.AppendMemberMessage(&member, body.Text, tag,
		services.DefaultRecipientsForTag(tag), models.SenderStaff, forceType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// The member sees the outbound text in their concierge log.
	mirror := models.MemberMessage{
		MemberID: member.ID,
		From:     models.SenderStaff,
		Kind:     models.MemberMessageChat,
		Text:     body.Text,
		SentAt:   thread.UpdatedAt,
	}
	if err := tc.DB.Create(&mirror).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to mirror composed message: %v", err)
	}

	live.Broadcast(live.Message{Event: live.EventThreadUpdate, Data: thread})
	utils.RespondJSON(c, http.StatusCreated, "Message sent", thread)
}

// MessageOwner opens the caller's PRIVATE thread with the owner.
func (tc *ThreadController) MessageOwner(c *gin.Context) {
	var body struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var staff models.Staff
	if err := tc.DB.First(&staff, "id = ?", currentStaffID(c)).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	thread, err := tc.Routing.AppendStaffPrivateMessage(&staff, body.Text, models.SenderStaffMember)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.BroadcastToRoles(
		live.Message{Event: live.EventThreadUpdate, Data: thread},
		[]string{models.RoleOwner},
	)
	utils.RespondJSON(c, http.StatusCreated, "Message sent to owner", thread)
}

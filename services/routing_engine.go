package services

import (
	"strings"
	"time"

	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/utils"
	"gorm.io/gorm"
)

// Capability describes what a staff role may do with threads. The engine and
// the controllers consult these flags instead of re-deriving behavior from
// the role string at every call site.
type Capability struct {
	CanReply     bool
	CanInitiate  bool
	CanRetag     bool
	CanMove      bool
	SecurityOnly bool // sees nothing but security alerts
	FloorOnly    bool // sees nothing but FLOOR threads
	PrivateOnly  bool // sees only PRIVATE threads they participate in
}

var roleCapabilities = map[string]Capability{
	models.RoleOwner:     {CanReply: true, CanInitiate: true, CanMove: true},
	models.RoleManager:   {CanReply: true, CanInitiate: true, CanRetag: true},
	models.RoleVIPHost:   {CanReply: true, CanInitiate: true, CanRetag: true},
	models.RoleWaitress:  {CanReply: true},
	models.RoleDoorman:   {CanReply: true, SecurityOnly: true},
	models.RoleBarback:   {FloorOnly: true},
	models.RoleBartender: {CanReply: true, PrivateOnly: true},
}

// CapabilityFor returns the capability set for a role. Unknown roles get the
// zero value, which can see nothing and do nothing.
func CapabilityFor(role string) Capability {
	return roleCapabilities[role]
}

// DefaultRecipientsForType derives the recipient role set from a thread's
// structural type. This table drives actual delivery.
func DefaultRecipientsForType(threadType string) models.RoleList {
	switch threadType {
	case models.ThreadTypeSecurity:
		return models.RoleList{models.RoleDoorman, models.RoleManager, models.RoleVIPHost, models.RoleOwner}
	case models.ThreadTypeFloor:
		// Waitress is addressed via WaitressID on the thread, not role membership.
		return models.RoleList{models.RoleBarback, models.RoleOwner}
	case models.ThreadTypeReservation:
		return models.RoleList{models.RoleOwner, models.RoleManager, models.RoleVIPHost}
	case models.ThreadTypeManagement:
		return models.RoleList{models.RoleManager, models.RoleVIPHost, models.RoleOwner}
	case models.ThreadTypePrivate:
		// Plus the specific participant via PrivateParticipantID.
		return models.RoleList{models.RoleOwner}
	default:
		return models.RoleList{models.RoleOwner}
	}
}

// DefaultRecipientsForTag derives recipients from the display tag — the
// legacy fallback for threads that predate explicit typing.
func DefaultRecipientsForTag(tag string) models.RoleList {
	switch tag {
	case models.ThreadTagSecurity:
		return models.RoleList{models.RoleDoorman, models.RoleManager, models.RoleVIPHost, models.RoleOwner}
	case models.ThreadTagFloor:
		return models.RoleList{models.RoleBarback, models.RoleOwner}
	case models.ThreadTagReservation:
		return models.RoleList{models.RoleOwner, models.RoleManager, models.RoleVIPHost}
	case models.ThreadTagVIP:
		return models.RoleList{models.RoleVIPHost, models.RoleOwner}
	case models.ThreadTagManagement:
		return models.RoleList{models.RoleManager, models.RoleVIPHost, models.RoleOwner}
	default:
		return models.RoleList{models.RoleOwner}
	}
}

// keywordRule maps free-text keywords to a tag. Evaluated in order;
// first matching rule wins, so SECURITY beats FLOOR beats RESERVATION.
type keywordRule struct {
	tag   string
	words []string
}

var tagKeywordRules = []keywordRule{
	{models.ThreadTagSecurity, []string{
		"harass", "fight", "emergency", "help", "unsafe", "threat", "weapon",
		"security", "assault", "trouble",
	}},
	{models.ThreadTagFloor, []string{
		"need my waitress", "need waitress", "need ice", "need water",
		"need hookah", "need coal", "need another bottle", "need btl",
		"another bottle", "more ice", "more water", "hookah", "coal",
		"refill", "waitress", "server", "service",
	}},
	{models.ThreadTagReservation, []string{
		"table", "reservation", "reserve", "bottle service", "booth",
		"vip table", "book",
	}},
	{models.ThreadTagVIP, []string{
		"vip", "vip host", "host", "upgrade", "vip section", "velvet",
	}},
	{models.ThreadTagManagement, []string{
		"manager", "complaint", "issue", "problem", "overcharged", "wrong",
		"escalate",
	}},
}

// AutoClassify assigns a display tag to free text by ordered keyword match.
func AutoClassify(text string) string {
	if text == "" {
		return models.ThreadTagGeneral
	}
	lower := strings.ToLower(text)
	for _, rule := range tagKeywordRules {
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				return rule.tag
			}
		}
	}
	return models.ThreadTagGeneral
}

// RoutingEngine computes thread visibility per role and owns all thread
// mutation: append, merge, move, retag.
type RoutingEngine struct {
	DB *gorm.DB
}

func NewRoutingEngine(db *gorm.DB) *RoutingEngine {
	return &RoutingEngine{DB: db}
}

// VisibleThreads filters the thread store for one viewer. Rules, in
// precedence order:
//  1. PRIVATE threads: owner, or the designated participant only.
//  2. Security alerts: recipient-role membership only.
//  3. Doorman sees nothing beyond rule 2.
//  4. Waitress sees exactly the FLOOR threads with WaitressID == hers.
//  5. Everything else requires recipient-role membership.
//  6. Barback sees FLOOR threads only; bartender only their own PRIVATE.
func (re *RoutingEngine) VisibleThreads(role, staffID string, section *string) ([]models.Thread, error) {
	var all []models.Thread
	if err := re.DB.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("sent_at ASC, id ASC")
	}).Order("updated_at DESC").Find(&all).Error; err != nil {
		return nil, err
	}

	caps := CapabilityFor(role)
	out := make([]models.Thread, 0, len(all))
	for _, t := range all {
		if re.threadVisible(t, role, staffID, caps) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (re *RoutingEngine) threadVisible(t models.Thread, role, staffID string, caps Capability) bool {
	recipients := t.RecipientRoles
	if len(recipients) == 0 {
		tag := t.Tag
		if tag == "" {
			tag = models.ThreadTagGeneral
		}
		recipients = DefaultRecipientsForTag(tag)
	}

	if t.Type == models.ThreadTypePrivate {
		if role == models.RoleOwner {
			return true
		}
		return t.PrivateParticipantKind == models.ParticipantStaff &&
			t.PrivateParticipantID != nil && *t.PrivateParticipantID == staffID
	}

	isSecAlert := t.IsSecurityAlert || t.Type == models.ThreadTypeSecurity || t.Tag == models.ThreadTagSecurity
	if isSecAlert {
		return recipients.Contains(role)
	}

	if caps.SecurityOnly {
		return false
	}

	// Waitresses are addressed by assignment, not role membership: their
	// whole inbox is the FLOOR threads pinned to them.
	if role == models.RoleWaitress {
		if t.Type == models.ThreadTypeFloor || t.Tag == models.ThreadTagFloor {
			return t.WaitressID != nil && *t.WaitressID == staffID
		}
		return false
	}

	if !recipients.Contains(role) {
		return false
	}

	if caps.FloorOnly {
		return t.Type == models.ThreadTypeFloor || t.Tag == models.ThreadTagFloor
	}

	if caps.PrivateOnly {
		return false
	}

	return true
}

// MoveThread is the owner's destructive re-route: type, tag, recipients and
// display name are all reset from the new type. TableNum and WaitressID
// survive the move so a FLOOR thread keeps its seating context.
func (re *RoutingEngine) MoveThread(threadID, newType string) (*models.Thread, error) {
	var thread models.Thread
	if err := re.DB.First(&thread, "id = ?", threadID).Error; err != nil {
		return nil, notFoundf("thread not found")
	}

	thread.Type = newType
	thread.Tag = newType
	thread.IsSecurityAlert = newType == models.ThreadTypeSecurity
	thread.RecipientRoles = DefaultRecipientsForType(newType)
	thread.ThreadName = models.DefaultThreadName(newType, thread.MemberName, thread.TableNum)

	if err := re.DB.Save(&thread).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Thread %s moved to %s", thread.ID, newType)
	return &thread, nil
}

// RetagThread changes the display tag and refreshes recipients from the tag
// table, leaving the structural type untouched.
func (re *RoutingEngine) RetagThread(threadID, newTag string) (*models.Thread, error) {
	var thread models.Thread
	if err := re.DB.First(&thread, "id = ?", threadID).Error; err != nil {
		return nil, notFoundf("thread not found")
	}

	thread.Tag = newTag
	thread.IsSecurityAlert = newTag == models.ThreadTagSecurity
	thread.RecipientRoles = DefaultRecipientsForTag(newTag)

	if err := re.DB.Save(&thread).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Thread %s retagged to %s", thread.ID, newTag)
	return &thread, nil
}

// AppendMemberMessage routes one member (or system) message into the right
// staff thread, creating it when absent.
//
// PRIVATE threads are never merged with any other thread: they are keyed by
// the (participant, kind) pair. Every other type keeps at most one live
// thread per (memberID, type) — later messages append to the existing one
// and union-expand its recipient set.
func (re *RoutingEngine) AppendMemberMessage(member *models.Member, text, tag string, recipientRoles models.RoleList, senderKind, forceType string) (*models.Thread, error) {
	threadType := forceType
	if threadType == "" {
		switch tag {
		case models.ThreadTagSecurity:
			threadType = models.ThreadTypeSecurity
		case models.ThreadTagFloor:
			threadType = models.ThreadTypeFloor
		case models.ThreadTagReservation:
			threadType = models.ThreadTypeReservation
		case models.ThreadTagManagement:
			threadType = models.ThreadTypeManagement
		default:
			threadType = models.ThreadTypeGeneral
		}
	}
	if senderKind == "" {
		senderKind = models.SenderMember
	}
	now := time.Now()

	if threadType == models.ThreadTypePrivate {
		var existing models.Thread
		err := re.DB.Where(
			"type = ? AND member_id = ? AND private_participant_kind = ?",
			models.ThreadTypePrivate, member.ID, models.ParticipantMember,
		).First(&existing).Error
		if err == nil {
			return &existing, re.appendMessage(&existing, senderKind, member.Name, text, now)
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}

		thread := models.Thread{
			ID:                     utils.NewID("PRIV"),
			Type:                   models.ThreadTypePrivate,
			Tag:                    models.ThreadTagGeneral,
			ThreadName:             models.DefaultThreadName(models.ThreadTypePrivate, member.Name, nil),
			RecipientRoles:         models.RoleList{models.RoleOwner},
			MemberID:               &member.ID,
			MemberName:             member.Name,
			MemberPhone:            derefStr(member.Phone),
			PrivateParticipantID:   &member.ID,
			PrivateParticipantKind: models.ParticipantMember,
		}
		if err := re.DB.Create(&thread).Error; err != nil {
			return nil, err
		}
		return &thread, re.appendMessage(&thread, senderKind, member.Name, text, now)
	}

	var existing models.Thread
	err := re.DB.Where(
		"member_id = ? AND is_security_alert = ? AND (type = ? OR (type = '' AND tag = ?))",
		member.ID, false, threadType, tag,
	).First(&existing).Error
	if err == nil {
		if existing.Type == "" {
			existing.Type = threadType
			existing.ThreadName = models.DefaultThreadName(threadType, member.Name, existing.TableNum)
		}
		existing.RecipientRoles = existing.RecipientRoles.Union(recipientRoles)
		if err := re.DB.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, re.appendMessage(&existing, senderKind, member.Name, text, now)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	roles := recipientRoles
	if len(roles) == 0 {
		roles = DefaultRecipientsForType(threadType)
	}
	if tag == "" {
		tag = threadType
	}
	thread := models.Thread{
		ID:              utils.NewID("M"),
		Type:            threadType,
		Tag:             tag,
		ThreadName:      models.DefaultThreadName(threadType, member.Name, nil),
		RecipientRoles:  roles,
		MemberID:        &member.ID,
		MemberName:      member.Name,
		MemberPhone:     derefStr(member.Phone),
		IsSecurityAlert: threadType == models.ThreadTypeSecurity,
	}
	if err := re.DB.Create(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, re.appendMessage(&thread, senderKind, member.Name, text, now)
}

// AppendStaffPrivateMessage opens (or continues) a PRIVATE thread between the
// owner and one staff member.
func (re *RoutingEngine) AppendStaffPrivateMessage(staff *models.Staff, text, senderKind string) (*models.Thread, error) {
	now := time.Now()

	var existing models.Thread
	err := re.DB.Where(
		"type = ? AND private_participant_kind = ? AND private_participant_id = ?",
		models.ThreadTypePrivate, models.ParticipantStaff, staff.ID,
	).First(&existing).Error
	if err == nil {
		return &existing, re.appendMessage(&existing, senderKind, staff.Name, text, now)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	thread := models.Thread{
		ID:                     utils.NewID("PRIV"),
		Type:                   models.ThreadTypePrivate,
		Tag:                    models.ThreadTagGeneral,
		ThreadName:             models.DefaultThreadName(models.ThreadTypePrivate, staff.Name, nil),
		RecipientRoles:         models.RoleList{models.RoleOwner},
		MemberName:             staff.Name,
		PrivateParticipantID:   &staff.ID,
		PrivateParticipantKind: models.ParticipantStaff,
	}
	if err := re.DB.Create(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, re.appendMessage(&thread, senderKind, staff.Name, text, now)
}

// CreateSecurityAlert opens a standalone SECURITY thread (doorman compose).
func (re *RoutingEngine) CreateSecurityAlert(senderName, text string) (*models.Thread, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationf("describe the situation first")
	}
	now := time.Now()
	thread := models.Thread{
		ID:              utils.NewID("SEC"),
		Type:            models.ThreadTypeSecurity,
		Tag:             models.ThreadTagSecurity,
		ThreadName:      "Security Alert — " + now.Format("3:04 PM"),
		RecipientRoles:  DefaultRecipientsForType(models.ThreadTypeSecurity),
		IsSecurityAlert: true,
	}
	if err := re.DB.Create(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, re.appendMessage(&thread, models.SenderStaffMember, senderName, text, now)
}

// Reply appends a staff reply and, when the thread belongs to a member,
// mirrors the text into the member's concierge log. Mirror failures are
// logged and swallowed: the staff-visible reply stands either way.
func (re *RoutingEngine) Reply(threadID, senderName, text string) (*models.Thread, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationf("message text is required")
	}
	var thread models.Thread
	if err := re.DB.First(&thread, "id = ?", threadID).Error; err != nil {
		return nil, notFoundf("thread not found")
	}

	now := time.Now()
	if err := re.appendMessage(&thread, models.SenderStaff, senderName, text, now); err != nil {
		return nil, err
	}

	if thread.MemberID != nil {
		mirror := models.MemberMessage{
			MemberID: *thread.MemberID,
			From:     models.SenderStaff,
			Kind:     models.MemberMessageChat,
			Text:     text,
			SentAt:   now,
		}
		if err := re.DB.Create(&mirror).Error; err != nil {
			utils.ErrorLogger.Printf("Failed to mirror reply to member %s: %v", *thread.MemberID, err)
		}
	}
	return &thread, nil
}

// AppendInternal records a system note on a thread (team notifications,
// seating announcements).
func (re *RoutingEngine) AppendInternal(thread *models.Thread, text string) error {
	return re.appendMessage(thread, models.SenderInternal, "", text, time.Now())
}

func (re *RoutingEngine) appendMessage(thread *models.Thread, senderKind, senderName, text string, at time.Time) error {
	msg := models.ThreadMessage{
		ThreadID:   thread.ID,
		SenderKind: senderKind,
		SenderName: senderName,
		Text:       text,
		SentAt:     at,
	}
	if err := re.DB.Create(&msg).Error; err != nil {
		return err
	}
	// Touch the thread so inbox ordering follows latest activity.
	return re.DB.Model(thread).Update("updated_at", at).Error
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/utils"
	"gorm.io/gorm"
)

// Follow-up response options.
const (
	FollowUpPositive     = "positive"
	FollowUpMessageOwner = "message-owner"
)

// FollowUpScheduler delivers the morning-after message to seated members.
// Jobs are durable rows with a fire-at timestamp; a polling goroutine picks
// up due rows, so pending follow-ups survive a restart and deliver at least
// once.
type FollowUpScheduler struct {
	DB       *gorm.DB
	Routing  *RoutingEngine
	StopChan chan struct{}
	Interval time.Duration

	// now is swappable in tests.
	now func() time.Time
}

func NewFollowUpScheduler(db *gorm.DB, routing *RoutingEngine) *FollowUpScheduler {
	return &FollowUpScheduler{
		DB:       db,
		Routing:  routing,
		StopChan: make(chan struct{}),
		Interval: 30 * time.Second,
		now:      time.Now,
	}
}

// Schedule books one follow-up for the member at 9 AM the morning after
// seating.
func (fs *FollowUpScheduler) Schedule(memberID, eventName string) error {
	now := fs.now()
	fireAt := time.Date(now.Year(), now.Month(), now.Day()+1, 9, 0, 0, 0, now.Location())

	job := models.FollowUpJob{
		MemberID:  memberID,
		EventName: eventName,
		FireAt:    fireAt,
	}
	if err := fs.DB.Create(&job).Error; err != nil {
		return err
	}
	utils.InfoLogger.Printf("Follow-up scheduled for member %s at %s", memberID, fireAt.Format(time.RFC3339))
	return nil
}

func (fs *FollowUpScheduler) Start() {
	go func() {
		ticker := time.NewTicker(fs.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fs.FireDue()
			case <-fs.StopChan:
				return
			}
		}
	}()
}

func (fs *FollowUpScheduler) Stop() {
	close(fs.StopChan)
}

// FireDue delivers every unsent job whose fire time has passed.
func (fs *FollowUpScheduler) FireDue() {
	var due []models.FollowUpJob
	if err := fs.DB.Where("sent = ? AND fire_at <= ?", false, fs.now()).
		Order("fire_at ASC").Find(&due).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching due follow-ups: %v", err)
		return
	}

	for _, job := range due {
		if err := fs.deliver(job); err != nil {
			utils.ErrorLogger.Printf("Follow-up delivery failed for member %s: %v", job.MemberID, err)
			continue
		}
		if err := fs.DB.Model(&models.FollowUpJob{}).Where("id = ?", job.ID).
			Update("sent", true).Error; err != nil {
			utils.ErrorLogger.Printf("Error marking follow-up %d sent: %v", job.ID, err)
		}
	}
}

func (fs *FollowUpScheduler) deliver(job models.FollowUpJob) error {
	var member models.Member
	if err := fs.DB.First(&member, "id = ?", job.MemberID).Error; err != nil {
		return err
	}

	firstName := strings.SplitN(member.Name, " ", 2)[0]
	if firstName == "" {
		firstName = "there"
	}
	where := " last night"
	if job.EventName != "" && job.EventName != "tonight" {
		where = " at " + job.EventName
	}
	text := fmt.Sprintf("Good morning, %s! 🌟 We hope you had an incredible time with us%s. It was truly a pleasure having you. We'd love to hear about your experience — your feedback means the world to us. How was your evening?",
		firstName, where)

	prompt := models.MemberMessage{
		MemberID: member.ID,
		From:     models.SenderStaff,
		Kind:     models.MemberMessageFollowUpPrompt,
		Text:     text,
		SentAt:   fs.now(),
	}
	return fs.DB.Create(&prompt).Error
}

// RespondToFollowUp handles the member's tap on a follow-up prompt.
// Positive feedback routes a note to the MANAGEMENT thread and closes with a
// thank-you; "message owner" opens the member's PRIVATE owner channel.
func (fs *FollowUpScheduler) RespondToFollowUp(memberID, response string) error {
	if response != FollowUpPositive && response != FollowUpMessageOwner {
		return validationf("unknown follow-up response: " + response)
	}
	var member models.Member
	if err := fs.DB.First(&member, "id = ?", memberID).Error; err != nil {
		return notFoundf("member not found")
	}
	now := fs.now()

	if response == FollowUpPositive {
		entries := []models.MemberMessage{
			{MemberID: member.ID, From: models.SenderMember, Kind: models.MemberMessageChat,
				Text: "⭐ Positive feedback — had a great time!", SentAt: now},
			{MemberID: member.ID, From: models.SenderStaff, Kind: models.MemberMessageChat,
				Text: "Thank you so much! Your kind words mean everything to us. We look forward to seeing you again soon. 🥂", SentAt: now},
		}
		for _, e := range entries {
			if err := fs.DB.Create(&e).Error; err != nil {
				return err
			}
		}

		_, err := fs.Routing.AppendMemberMessage(&member,
			"Positive experience feedback from member — no action needed.",
			models.ThreadTagManagement,
			models.RoleList{models.RoleOwner, models.RoleManager, models.RoleVIPHost},
			models.SenderMember, models.ThreadTypeManagement)
		return err
	}

	reply := models.MemberMessage{
		MemberID: member.ID,
		From:     models.SenderStaff,
		Kind:     models.MemberMessageChat,
		Text:     "Of course — the owner is here to listen. Please share what's on your mind and we'll make it right.",
		SentAt:   now,
	}
	if err := fs.DB.Create(&reply).Error; err != nil {
		return err
	}

	// Open the PRIVATE owner channel so the member's next message lands there.
	_, err := fs.Routing.AppendMemberMessage(&member,
		"Member opened the owner channel from a follow-up prompt.",
		models.ThreadTagGeneral,
		models.RoleList{models.RoleOwner},
		models.SenderInternal, models.ThreadTypePrivate)
	return err
}

package models

import "time"

type Member struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Phone     *string   `gorm:"type:varchar(50);index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Member message kinds. Follow-up prompts render with response buttons.
const (
	MemberMessageChat           = "chat"
	MemberMessageFollowUpPrompt = "followup-prompt"
)

// MemberMessage is one entry in a member's personal concierge log — the
// member-facing side of the conversation, distinct from staff threads.
type MemberMessage struct {
	ID        uint      `gorm:"primaryKey"`
	MemberID  string    `gorm:"type:varchar(64);not null;index"`
	From      string    `gorm:"type:varchar(20);not null"`
	Kind      string    `gorm:"type:varchar(20);not null;default:'chat'"`
	Text      string    `gorm:"type:text;not null"`
	SentAt    time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

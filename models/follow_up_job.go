package models

import "time"

// FollowUpJob is a durable scheduled message injection: one row per seated
// party, fired by the scheduler at the next 9 AM after seating. Surviving
// restarts is the point — the scheduler re-reads unsent rows on startup.
type FollowUpJob struct {
	ID        uint      `gorm:"primaryKey"`
	MemberID  string    `gorm:"type:varchar(64);not null;index"`
	EventName string    `gorm:"type:varchar(255)"`
	FireAt    time.Time `gorm:"not null;index"`
	Sent      bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

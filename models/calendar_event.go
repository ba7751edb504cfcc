package models

import "time"

// CalendarEvent is an annotation on the venue calendar. Reservation/seating
// entries are keyed by (DateKey, SaleID) and replaced, never accumulated,
// when the same sale is recorded again.
type CalendarEvent struct {
	ID         uint    `gorm:"primaryKey"`
	DateKey    string  `gorm:"type:varchar(10);not null;index"`
	Type       string  `gorm:"type:varchar(20);not null"`
	Time       string  `gorm:"type:varchar(20)"`
	Name       string  `gorm:"type:varchar(255);not null"`
	Desc       string  `gorm:"type:text"`
	Tag        string  `gorm:"type:varchar(20)"`
	MemberID   *string `gorm:"type:varchar(64)"`
	SaleID     *string `gorm:"type:varchar(64);index"`
	PromoterID *string `gorm:"type:varchar(64)"`
	Private    bool    `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
}

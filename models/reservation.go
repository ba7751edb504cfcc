package models

import "time"

// Reservation statuses. A declined reservation is deleted outright, but the
// constant participates in transition validation.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationSat       = "sat"
	ReservationDeclined  = "declined"
)

type Reservation struct {
	ID                   string  `gorm:"primaryKey;type:varchar(64)"`
	MemberID             *string `gorm:"type:varchar(64);index"`
	MemberName           string  `gorm:"type:varchar(255);not null"`
	MemberPhone          *string `gorm:"type:varchar(50)"`
	DateKey              string  `gorm:"type:varchar(10);not null;index"`
	EventName            string  `gorm:"type:varchar(255)"`
	PartySize            int     `gorm:"not null"`
	Occasion             string  `gorm:"type:varchar(100)"`
	Notes                string  `gorm:"type:text"`
	Status               string  `gorm:"type:varchar(20);not null;index"`
	TableAssigned        *string `gorm:"type:varchar(10)"`
	WaitressAssigned     *string `gorm:"type:varchar(64)"`
	ReferredByPromoterID *string `gorm:"type:varchar(64)"`
	RequestedAt          time.Time `gorm:"not null"`
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// CanTransition reports whether a status change is a legal lifecycle step:
// pending→confirmed, pending→declined, confirmed→sat. Everything else,
// including any move out of a terminal state, is rejected.
func CanTransition(from, to string) bool {
	switch from {
	case ReservationPending:
		return to == ReservationConfirmed || to == ReservationDeclined
	case ReservationConfirmed:
		return to == ReservationSat
	}
	return false
}

package models

import "time"

// Staff roles.
const (
	RoleOwner     = "owner"
	RoleManager   = "manager"
	RoleVIPHost   = "vip-host"
	RoleWaitress  = "waitress"
	RoleBarback   = "barback"
	RoleDoorman   = "doorman"
	RoleBartender = "bartender"
)

type Staff struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(255);unique;not null"`
	Password  string    `gorm:"type:varchar(255);not null"`
	Role      string    `gorm:"type:varchar(20);not null;index"`
	Section   *string   `gorm:"type:varchar(50)"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Promoter brings guests in via referral links; attributed on sales and
// reservations, not part of the floor staff role set.
type Promoter struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// PromoterGuest is one name on a promoter's guest list.
type PromoterGuest struct {
	ID         uint      `gorm:"primaryKey"`
	PromoterID string    `gorm:"type:varchar(64);not null;index"`
	GuestName  string    `gorm:"type:varchar(255);not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

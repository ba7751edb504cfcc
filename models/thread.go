package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Thread types — structural category, drives delivery and visibility.
const (
	ThreadTypePrivate     = "PRIVATE"
	ThreadTypeReservation = "RESERVATION"
	ThreadTypeFloor       = "FLOOR"
	ThreadTypeSecurity    = "SECURITY"
	ThreadTypeManagement  = "MANAGEMENT"
	ThreadTypeGeneral     = "GENERAL"
)

// Thread tags — display classification, may diverge from type.
const (
	ThreadTagGeneral     = "GENERAL"
	ThreadTagReservation = "RESERVATION"
	ThreadTagVIP         = "VIP"
	ThreadTagFloor       = "FLOOR"
	ThreadTagSecurity    = "SECURITY"
	ThreadTagManagement  = "MANAGEMENT"
)

// Message sender kinds.
const (
	SenderMember      = "member"
	SenderStaff       = "staff"
	SenderStaffMember = "staff-member"
	SenderInternal    = "internal"
)

// Private participant kinds.
const (
	ParticipantMember = "member"
	ParticipantStaff  = "staff"
)

// RoleList is a set of role identifiers stored as a JSON array column.
type RoleList []string

func (r RoleList) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	return string(b), err
}

func (r *RoleList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	case nil:
		*r = RoleList{}
		return nil
	}
	return errors.New("unsupported role list column type")
}

func (r RoleList) Contains(role string) bool {
	for _, x := range r {
		if x == role {
			return true
		}
	}
	return false
}

// Union adds any roles not already present, preserving order.
func (r RoleList) Union(roles RoleList) RoleList {
	out := r
	for _, x := range roles {
		if !out.Contains(x) {
			out = append(out, x)
		}
	}
	return out
}

type Thread struct {
	ID                     string   `gorm:"primaryKey;type:varchar(64)"`
	Type                   string   `gorm:"type:varchar(20);not null;index"`
	Tag                    string   `gorm:"type:varchar(20);not null"`
	ThreadName             string   `gorm:"type:varchar(255);not null"`
	RecipientRoles         RoleList `gorm:"type:text;not null"`
	MemberID               *string  `gorm:"type:varchar(64);index"`
	MemberName             string   `gorm:"type:varchar(255)"`
	MemberPhone            string   `gorm:"type:varchar(50)"`
	PrivateParticipantID   *string  `gorm:"type:varchar(64)"`
	PrivateParticipantKind string   `gorm:"type:varchar(10)"`
	Section                *string  `gorm:"type:varchar(50)"`
	TableNum               *string  `gorm:"type:varchar(10)"`
	WaitressID             *string  `gorm:"type:varchar(64)"`
	WaitressName           string   `gorm:"type:varchar(255)"`
	PromoterID             *string  `gorm:"type:varchar(64)"`
	ReservationID          *string  `gorm:"type:varchar(64)"`
	IsSecurityAlert        bool     `gorm:"not null;default:false"`
	Messages               []ThreadMessage `gorm:"foreignKey:ThreadID;references:ID"`
	CreatedAt              time.Time `gorm:"not null"`
	UpdatedAt              time.Time `gorm:"not null"`
}

// ThreadMessage is one entry in a thread's append-only message log.
type ThreadMessage struct {
	ID         uint      `gorm:"primaryKey"`
	ThreadID   string    `gorm:"type:varchar(64);not null;index"`
	SenderKind string    `gorm:"type:varchar(20);not null"`
	SenderName string    `gorm:"type:varchar(255)"`
	Text       string    `gorm:"type:text;not null"`
	SentAt     time.Time `gorm:"not null"`
}

// DefaultThreadName builds the canonical display name for a thread type.
func DefaultThreadName(threadType, memberOrStaffName string, tableNum *string) string {
	name := memberOrStaffName
	if name == "" {
		name = "Guest"
	}
	switch threadType {
	case ThreadTypeFloor:
		if tableNum != nil && *tableNum != "" {
			return name + " — Table " + *tableNum
		}
		return name
	case ThreadTypePrivate:
		return "Message with " + name
	case ThreadTypeReservation:
		return "Reservation — " + name
	case ThreadTypeSecurity:
		return "Security Alert"
	case ThreadTypeManagement:
		return "Management"
	case ThreadTypeGeneral:
		return "General"
	}
	return name
}

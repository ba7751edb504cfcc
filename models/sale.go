package models

import "time"

// Sale types and statuses.
const (
	SaleTypeTicket = "ticket"
	SaleTypeTable  = "table"

	SalePending   = "pending"
	SaleConfirmed = "confirmed"
)

// Sale is a read-only log entry produced by the sale pipeline: one row per
// table booking or ticket, with promoter attribution when the member arrived
// via a guest-list link.
type Sale struct {
	ID            string  `gorm:"primaryKey;type:varchar(64)"`
	Type          string  `gorm:"type:varchar(10);not null"`
	MemberID      *string `gorm:"type:varchar(64);index"`
	MemberName    string  `gorm:"type:varchar(255)"`
	MemberPhone   *string `gorm:"type:varchar(50)"`
	PromoterID    *string `gorm:"type:varchar(64);index"`
	PromoterName  *string `gorm:"type:varchar(255)"`
	EventName     string  `gorm:"type:varchar(255)"`
	DateKey       string  `gorm:"type:varchar(10);index"`
	TableAssigned *string `gorm:"type:varchar(10)"`
	WaitressName  *string `gorm:"type:varchar(255)"`
	PartySize     int     `gorm:"not null;default:1"`
	Amount        float64 `gorm:"not null;default:0"`
	IsComp        bool    `gorm:"not null;default:false"`
	Status        string  `gorm:"type:varchar(20);not null"`
	PurchasedAt   time.Time `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// Comp records an owner-issued comp, independent of whether the recipient
// resolved to a member record.
type Comp struct {
	ID        uint      `gorm:"primaryKey"`
	Type      string    `gorm:"type:varchar(50);not null"`
	Recipient string    `gorm:"type:varchar(255);not null"`
	Note      string    `gorm:"type:text"`
	IssuedBy  string    `gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

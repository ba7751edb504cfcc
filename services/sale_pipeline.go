package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/utils"
	"gorm.io/gorm"
)

// SaleRecord carries everything the pipeline needs to stamp the calendar,
// notify the member and mirror into the staff thread.
type SaleRecord struct {
	ID            string
	Type          string // models.SaleTypeTable or models.SaleTypeTicket
	MemberID      *string
	MemberName    string
	MemberPhone   *string
	PromoterID    *string
	PromoterName  *string
	EventName     string
	DateKey       string
	TableAssigned *string
	WaitressName  *string
	PartySize     int
	Amount        float64
	IsComp        bool
}

// SalePipeline fans a seating/comp event out to the sales log, the calendar,
// the member's concierge log and the member's reservation thread. Invoked
// from Seat and from owner comp issuance; both converge on the same
// idempotent contract.
type SalePipeline struct {
	DB      *gorm.DB
	Routing *RoutingEngine
}

func NewSalePipeline(db *gorm.DB, routing *RoutingEngine) *SalePipeline {
	return &SalePipeline{DB: db, Routing: routing}
}

// RecordSeatingOrComp runs the pipeline. Calendar stamping replaces any
// prior entry for the same sale id on the date, so a second call with the
// same id leaves exactly one annotation. Side-channel failures (calendar,
// member log) are logged and never abort the sale.
func (sp *SalePipeline) RecordSeatingOrComp(sale SaleRecord) error {
	if sale.PartySize < 1 {
		sale.PartySize = 1
	}

	if err := sp.upsertSale(sale); err != nil {
		return err
	}

	if sale.DateKey != "" {
		if err := sp.stampCalendar(sale); err != nil {
			utils.ErrorLogger.Printf("Calendar stamp failed for sale %s: %v", sale.ID, err)
		}
	}

	if sale.MemberID != nil {
		if err := sp.notifyMember(sale); err != nil {
			utils.ErrorLogger.Printf("Member notification failed for sale %s: %v", sale.ID, err)
		}
	}
	return nil
}

func (sp *SalePipeline) upsertSale(sale SaleRecord) error {
	row := models.Sale{
		ID:            sale.ID,
		Type:          sale.Type,
		MemberID:      sale.MemberID,
		MemberName:    sale.MemberName,
		MemberPhone:   sale.MemberPhone,
		PromoterID:    sale.PromoterID,
		PromoterName:  sale.PromoterName,
		EventName:     sale.EventName,
		DateKey:       sale.DateKey,
		TableAssigned: sale.TableAssigned,
		WaitressName:  sale.WaitressName,
		PartySize:     sale.PartySize,
		Amount:        sale.Amount,
		IsComp:        sale.IsComp,
		Status:        models.SaleConfirmed,
		PurchasedAt:   time.Now(),
	}

	var existing models.Sale
	err := sp.DB.First(&existing, "id = ?", sale.ID).Error
	if err == gorm.ErrRecordNotFound {
		return sp.DB.Create(&row).Error
	}
	if err != nil {
		return err
	}
	row.PurchasedAt = existing.PurchasedAt
	row.CreatedAt = existing.CreatedAt
	return sp.DB.Save(&row).Error
}

func (sp *SalePipeline) stampCalendar(sale SaleRecord) error {
	calTag := "TICKET"
	if sale.Type == models.SaleTypeTable {
		calTag = "TABLE"
	}

	target := "Ticket"
	if sale.Type == models.SaleTypeTable {
		target = "Table TBD"
	}
	if sale.TableAssigned != nil && *sale.TableAssigned != "" {
		target = "Table " + *sale.TableAssigned
	}

	guests := fmt.Sprintf("%d guest", sale.PartySize)
	if sale.PartySize > 1 {
		guests += "s"
	}
	desc := guests + " · " + sale.EventName
	if sale.PromoterName != nil && *sale.PromoterName != "" {
		desc += " · via " + *sale.PromoterName
	}
	desc += " · " + utils.FormatAmount(sale.Amount, sale.IsComp)
	if sale.WaitressName != nil && *sale.WaitressName != "" {
		desc += " · " + *sale.WaitressName
	}

	return sp.DB.Transaction(func(tx *gorm.DB) error {
		// Idempotent replace: drop the stale entry for this sale first.
		if err := tx.Where("date_key = ? AND sale_id = ?", sale.DateKey, sale.ID).
			Delete(&models.CalendarEvent{}).Error; err != nil {
			return err
		}
		entry := models.CalendarEvent{
			DateKey:    sale.DateKey,
			Type:       "reservation",
			Time:       "—",
			Name:       target + " — " + sale.MemberName,
			Desc:       desc,
			Tag:        calTag,
			MemberID:   sale.MemberID,
			SaleID:     &sale.ID,
			PromoterID: sale.PromoterID,
			Private:    true,
		}
		return tx.Create(&entry).Error
	})
}

func (sp *SalePipeline) notifyMember(sale SaleRecord) error {
	msg := composeSaleMessage(sale)
	now := time.Now()

	log := models.MemberMessage{
		MemberID: *sale.MemberID,
		From:     models.SenderStaff,
		Kind:     models.MemberMessageChat,
		Text:     msg,
		SentAt:   now,
	}
	if err := sp.DB.Create(&log).Error; err != nil {
		return err
	}

	// Mirror into the member's RESERVATION thread so staff can reply; create
	// it when absent.
	var thread models.Thread
	err := sp.DB.Where("member_id = ? AND type = ?", *sale.MemberID, models.ThreadTypeReservation).
		First(&thread).Error
	if err == nil {
		if sale.TableAssigned != nil && *sale.TableAssigned != "" {
			thread.TableNum = sale.TableAssigned
		}
		if sale.PromoterID != nil {
			thread.PromoterID = sale.PromoterID
		}
		if err := sp.DB.Save(&thread).Error; err != nil {
			return err
		}
		return sp.Routing.appendMessage(&thread, models.SenderStaff, "", msg, now)
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	thread = models.Thread{
		ID:             utils.NewID("M"),
		Type:           models.ThreadTypeReservation,
		Tag:            models.ThreadTagReservation,
		ThreadName:     models.DefaultThreadName(models.ThreadTypeReservation, sale.MemberName, nil),
		RecipientRoles: DefaultRecipientsForType(models.ThreadTypeReservation),
		MemberID:       sale.MemberID,
		MemberName:     sale.MemberName,
		MemberPhone:    derefStr(sale.MemberPhone),
		TableNum:       sale.TableAssigned,
		PromoterID:     sale.PromoterID,
	}
	if err := sp.DB.Create(&thread).Error; err != nil {
		return err
	}
	return sp.Routing.appendMessage(&thread, models.SenderStaff, "", msg, now)
}

// composeSaleMessage picks one of the four member-facing templates:
// table vs ticket, comped vs paid.
func composeSaleMessage(sale SaleRecord) string {
	var promoLine string
	if sale.PromoterName != nil && *sale.PromoterName != "" {
		promoLine = fmt.Sprintf("\n\nYou were added via %s's guest list — priority entry is set.", *sale.PromoterName)
	}

	if sale.Type == models.SaleTypeTable {
		compLine := fmt.Sprintf(" — $%.0f confirmed", sale.Amount)
		if sale.IsComp {
			compLine = " (Complimentary — on the house)"
		}
		var tableLine string
		if sale.TableAssigned != nil && *sale.TableAssigned != "" {
			tableLine = "\n\nYour table: " + *sale.TableAssigned + "."
		} else {
			tableLine = "\n\nYour table assignment is coming shortly."
		}
		var waitressLine string
		if sale.WaitressName != nil && *sale.WaitressName != "" {
			waitressLine = " Your server tonight is " + *sale.WaitressName + "."
		}
		return fmt.Sprintf("🥂 Table confirmed for %s%s.%s%s%s\n\nReply here anytime if you need anything tonight.",
			sale.EventName, compLine, tableLine, waitressLine, promoLine)
	}

	var comp, price string
	if sale.IsComp {
		comp = " complimentary"
	} else {
		price = fmt.Sprintf(" — $%.0f", sale.Amount)
	}
	return fmt.Sprintf("🎟️ Your%s ticket for %s is confirmed%s.%s\n\nSee you tonight!",
		comp, sale.EventName, price, promoLine)
}

// IssueComp is the owner's shortcut around the reservation flow. The comp is
// always logged; the notification pipeline fires only when the recipient
// resolves to a member record.
func (sp *SalePipeline) IssueComp(compType, recipient, note, issuedBy string) (*models.Comp, error) {
	if strings.TrimSpace(recipient) == "" {
		return nil, validationf("enter a recipient name or phone")
	}

	labels := map[string]string{
		"ticket":     "GA Ticket",
		"vip-ticket": "VIP Ticket",
		"table":      "Table Reservation",
	}
	label := labels[compType]
	if label == "" {
		label = compType
	}

	comp := models.Comp{
		Type:      label,
		Recipient: recipient,
		Note:      note,
		IssuedBy:  issuedBy,
	}
	if err := sp.DB.Create(&comp).Error; err != nil {
		return nil, err
	}

	var member models.Member
	err := sp.DB.Where("name = ? OR phone = ?", recipient, recipient).First(&member).Error
	if err == gorm.ErrRecordNotFound {
		return &comp, nil
	}
	if err != nil {
		return nil, err
	}

	saleType := models.SaleTypeTicket
	if compType == "table" {
		saleType = models.SaleTypeTable
	}
	record := SaleRecord{
		ID:          utils.NewID("COMP"),
		Type:        saleType,
		MemberID:    &member.ID,
		MemberName:  member.Name,
		MemberPhone: member.Phone,
		EventName:   "tonight",
		DateKey:     time.Now().Format("2006-01-02"),
		PartySize:   1,
		Amount:      0,
		IsComp:      true,
	}
	if err := sp.RecordSeatingOrComp(record); err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Comp issued to %s (%s)", recipient, label)
	return &comp, nil
}

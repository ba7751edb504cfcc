package services

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/utils"
	"gorm.io/gorm"
)

// Table pricing by party size, used to log the pending sale at intake.
// Owner-configurable in a later phase; these are tonight's defaults.
func tablePriceFor(partySize int) float64 {
	switch {
	case partySize <= 2:
		return 150
	case partySize <= 4:
		return 250
	default:
		return 450
	}
}

// ReservationLifecycle drives a reservation from intake through confirmation
// to a seated table: pending → {confirmed, declined}; confirmed → sat.
// Declined and sat are terminal.
//
// Table selection is a transient staging step held in memory — staging never
// reserves a table; the conflict check happens again at seat commit time,
// inside the transaction.
type ReservationLifecycle struct {
	DB       *gorm.DB
	Routing  *RoutingEngine
	Pipeline *SalePipeline
	FollowUp *FollowUpScheduler

	mu       sync.Mutex
	selected map[string]int // reservation id → staged table number
}

func NewReservationLifecycle(db *gorm.DB, routing *RoutingEngine, pipeline *SalePipeline, followUp *FollowUpScheduler) *ReservationLifecycle {
	return &ReservationLifecycle{
		DB:       db,
		Routing:  routing,
		Pipeline: pipeline,
		FollowUp: followUp,
		selected: make(map[string]int),
	}
}

// ReservationRequest is the member-facing intake payload.
type ReservationRequest struct {
	MemberID    *string
	MemberName  string
	MemberPhone *string
	DateKey     string
	EventName   string
	PartySize   int
	Occasion    string
	Notes       string
	PromoterRef string // referral id from the member's arrival link, if any
}

// Request files a member-submitted reservation in pending state and logs a
// pending table sale attributed to the referring promoter. Referred members
// are appended to the promoter's guest list.
func (rl *ReservationLifecycle) Request(req ReservationRequest) (*models.Reservation, error) {
	if req.PartySize < 1 {
		return nil, validationf("please enter party size")
	}
	if req.MemberName == "" {
		req.MemberName = "Guest"
	}
	if req.Occasion == "" {
		req.Occasion = "General visit"
	}

	var promoter *models.Promoter
	if req.PromoterRef != "" {
		var p models.Promoter
		if err := rl.DB.First(&p, "id = ?", req.PromoterRef).Error; err == nil {
			promoter = &p
		}
	}

	res := models.Reservation{
		ID:          utils.NewID("RES"),
		MemberID:    req.MemberID,
		MemberName:  req.MemberName,
		MemberPhone: req.MemberPhone,
		DateKey:     req.DateKey,
		EventName:   req.EventName,
		PartySize:   req.PartySize,
		Occasion:    req.Occasion,
		Notes:       req.Notes,
		Status:      models.ReservationPending,
		RequestedAt: time.Now(),
	}
	if promoter != nil {
		res.ReferredByPromoterID = &promoter.ID
	}
	if err := rl.DB.Create(&res).Error; err != nil {
		return nil, err
	}

	sale := models.Sale{
		ID:          res.ID,
		Type:        models.SaleTypeTable,
		MemberID:    req.MemberID,
		MemberName:  req.MemberName,
		MemberPhone: req.MemberPhone,
		EventName:   req.EventName,
		DateKey:     req.DateKey,
		PartySize:   req.PartySize,
		Amount:      tablePriceFor(req.PartySize),
		Status:      models.SalePending,
		PurchasedAt: time.Now(),
	}
	if promoter != nil {
		sale.PromoterID = &promoter.ID
		sale.PromoterName = &promoter.Name
	}
	if err := rl.DB.Create(&sale).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to log pending sale for reservation %s: %v", res.ID, err)
	}

	if promoter != nil && req.MemberName != "" {
		var count int64
		rl.DB.Model(&models.PromoterGuest{}).
			Where("promoter_id = ? AND guest_name = ?", promoter.ID, req.MemberName).
			Count(&count)
		if count == 0 {
			guest := models.PromoterGuest{PromoterID: promoter.ID, GuestName: req.MemberName}
			if err := rl.DB.Create(&guest).Error; err != nil {
				utils.ErrorLogger.Printf("Failed to append guest list entry: %v", err)
			}
		}
	}

	utils.InfoLogger.Printf("Reservation %s requested: %s, party of %d on %s",
		res.ID, res.MemberName, res.PartySize, res.DateKey)
	return &res, nil
}

// ManualEntry is the staff/owner walk-up path: the reservation enters
// confirmed directly, skipping pending. An existing member is matched by
// phone or case-insensitive name.
func (rl *ReservationLifecycle) ManualEntry(name string, phone *string, partySize int, occasion, notes string) (*models.Reservation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationf("enter a guest name")
	}
	if partySize < 1 {
		return nil, validationf("enter party size")
	}
	if occasion == "" {
		occasion = "General visit"
	}

	var memberID *string
	var memberPhone = phone
	var member models.Member
	q := rl.DB.Where("LOWER(name) = ?", strings.ToLower(name))
	if phone != nil && *phone != "" {
		q = rl.DB.Where("phone = ? OR LOWER(name) = ?", *phone, strings.ToLower(name))
	}
	if err := q.First(&member).Error; err == nil {
		memberID = &member.ID
		if memberPhone == nil {
			memberPhone = member.Phone
		}
	}

	res := models.Reservation{
		ID:          utils.NewID("RES"),
		MemberID:    memberID,
		MemberName:  name,
		MemberPhone: memberPhone,
		DateKey:     time.Now().Format("2006-01-02"),
		EventName:   "Tonight",
		PartySize:   partySize,
		Occasion:    occasion,
		Notes:       notes,
		Status:      models.ReservationConfirmed,
		RequestedAt: time.Now(),
	}
	if err := rl.DB.Create(&res).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Manual reservation %s: %s, party of %d", res.ID, name, partySize)
	return &res, nil
}

// WalkIn synthesizes a confirmed party-of-one so a guest at the door enters
// the same select-table/seat path as a normal confirmed reservation. When no
// member record matches, one is created on the fly.
func (rl *ReservationLifecycle) WalkIn(name string, phone *string) (*models.Reservation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationf("enter a guest name")
	}

	var member models.Member
	err := rl.DB.Where("LOWER(name) = ?", strings.ToLower(name)).First(&member).Error
	if err == gorm.ErrRecordNotFound {
		member = models.Member{
			ID:    utils.NewID("MBR"),
			Name:  name,
			Phone: phone,
		}
		if err := rl.DB.Create(&member).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	res := models.Reservation{
		ID:          utils.NewID("RES"),
		MemberID:    &member.ID,
		MemberName:  member.Name,
		MemberPhone: member.Phone,
		DateKey:     time.Now().Format("2006-01-02"),
		EventName:   "Tonight",
		PartySize:   1,
		Occasion:    "Walk-in",
		Status:      models.ReservationConfirmed,
		RequestedAt: time.Now(),
	}
	if err := rl.DB.Create(&res).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Walk-in %s for %s", res.ID, member.Name)
	return &res, nil
}

// Accept confirms a pending reservation. The table hint, when given, is
// advisory only — it is not validated against other reservations here.
// The member gets a confirmation message and their RESERVATION thread is
// created or refreshed with the owner/manager/vip-host recipient set.
func (rl *ReservationLifecycle) Accept(reservationID string, tableHint *string) (*models.Reservation, error) {
	var res models.Reservation
	if err := rl.DB.First(&res, "id = ?", reservationID).Error; err != nil {
		return nil, notFoundf("reservation not found")
	}
	if !models.CanTransition(res.Status, models.ReservationConfirmed) {
		return nil, validationf("reservation is not pending")
	}

	if tableHint != nil && *tableHint != "" {
		res.TableAssigned = tableHint
	}
	res.Status = models.ReservationConfirmed
	if err := rl.DB.Save(&res).Error; err != nil {
		return nil, err
	}

	if res.MemberID != nil {
		rl.notifyAccepted(&res)
	}

	utils.InfoLogger.Printf("Reservation %s accepted for %s", res.ID, res.MemberName)
	return &res, nil
}

func (rl *ReservationLifecycle) notifyAccepted(res *models.Reservation) {
	tableNote := " Your table assignment will follow shortly."
	if res.TableAssigned != nil && *res.TableAssigned != "" {
		tableNote = " Your table: " + *res.TableAssigned + "."
	}
	guests := fmt.Sprintf("%d guest", res.PartySize)
	if res.PartySize > 1 {
		guests += "s"
	}
	eventName := res.EventName
	if eventName == "" {
		eventName = "tonight"
	}
	confirmMsg := fmt.Sprintf("🥂 Your reservation for %s is confirmed — %s!%s We're looking forward to having you. See you soon!",
		eventName, guests, tableNote)

	now := time.Now()
	log := models.MemberMessage{
		MemberID: *res.MemberID,
		From:     models.SenderStaff,
		Kind:     models.MemberMessageChat,
		Text:     confirmMsg,
		SentAt:   now,
	}
	if err := rl.DB.Create(&log).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to log confirmation for member %s: %v", *res.MemberID, err)
	}

	// Mirror to the member's RESERVATION thread, creating it when absent.
	var thread models.Thread
	err := rl.DB.Where("member_id = ? AND type = ?", *res.MemberID, models.ThreadTypeReservation).
		First(&thread).Error
	if err == nil {
		if res.TableAssigned != nil {
			thread.TableNum = res.TableAssigned
		}
		thread.ThreadName = models.DefaultThreadName(models.ThreadTypeReservation, res.MemberName, nil)
		thread.RecipientRoles = DefaultRecipientsForType(models.ThreadTypeReservation)
		if err := rl.DB.Save(&thread).Error; err != nil {
			utils.ErrorLogger.Printf("Failed to refresh reservation thread: %v", err)
			return
		}
	} else if err == gorm.ErrRecordNotFound {
		thread = models.Thread{
			ID:             utils.NewID("M"),
			Type:           models.ThreadTypeReservation,
			Tag:            models.ThreadTagReservation,
			ThreadName:     models.DefaultThreadName(models.ThreadTypeReservation, res.MemberName, nil),
			RecipientRoles: DefaultRecipientsForType(models.ThreadTypeReservation),
			MemberID:       res.MemberID,
			MemberName:     res.MemberName,
			MemberPhone:    derefStr(res.MemberPhone),
			TableNum:       res.TableAssigned,
			ReservationID:  &res.ID,
		}
		if err := rl.DB.Create(&thread).Error; err != nil {
			utils.ErrorLogger.Printf("Failed to create reservation thread: %v", err)
			return
		}
	} else {
		utils.ErrorLogger.Printf("Failed to look up reservation thread: %v", err)
		return
	}

	if err := rl.Routing.appendMessage(&thread, models.SenderStaff, "", confirmMsg, now); err != nil {
		utils.ErrorLogger.Printf("Failed to append confirmation message: %v", err)
	}

	internal := fmt.Sprintf("📋 TEAM: Reservation accepted for %s — %d pax%s.",
		res.MemberName, res.PartySize, tableSuffix(res.TableAssigned))
	if res.Occasion != "" && res.Occasion != "General visit" {
		internal += " Occasion: " + res.Occasion + "."
	}
	internal += " VIP Host & Manager notified."
	if res.Notes != "" {
		internal += " Notes: \"" + res.Notes + "\""
	}
	if err := rl.Routing.AppendInternal(&thread, internal); err != nil {
		utils.ErrorLogger.Printf("Failed to append team note: %v", err)
	}
}

func tableSuffix(table *string) string {
	if table == nil || *table == "" {
		return ""
	}
	return ", " + *table
}

// Decline removes a pending reservation outright, along with any calendar
// annotation keyed by its sale id. Terminal — there is nothing to recover.
func (rl *ReservationLifecycle) Decline(reservationID string) error {
	var res models.Reservation
	if err := rl.DB.First(&res, "id = ?", reservationID).Error; err != nil {
		return notFoundf("reservation not found")
	}
	if !models.CanTransition(res.Status, models.ReservationDeclined) {
		return validationf("reservation is not pending")
	}

	return rl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", res.ID).Delete(&models.CalendarEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&res).Error; err != nil {
			return err
		}
		utils.InfoLogger.Printf("Reservation %s declined and removed", res.ID)
		return nil
	})
}

// SelectTable stages a candidate table for a reservation. Staging is not a
// commit: it never reserves the table, and multiple reservations may stage
// tables concurrently. A table already sat is rejected up front.
func (rl *ReservationLifecycle) SelectTable(reservationID string, tableNum int) error {
	if tableNum < 1 || tableNum > FloorTableCount {
		return validationf("table number out of range")
	}

	fp := FloorPlan{DB: rl.DB}
	st, err := fp.TableStatus(tableNum)
	if err != nil {
		return err
	}
	if st.Status == TableSat {
		return conflictf(fmt.Sprintf("table %d is already sat", tableNum))
	}

	rl.mu.Lock()
	rl.selected[reservationID] = tableNum
	rl.mu.Unlock()
	return nil
}

// StagedTable returns the staged selection for a reservation, if any.
func (rl *ReservationLifecycle) StagedTable(reservationID string) (int, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n, ok := rl.selected[reservationID]
	return n, ok
}

// Seat commits a confirmed reservation onto its staged table ("mark as
// sat"). Both the staged selection and a waitress are mandatory. The
// double-book check runs again inside the transaction, so two staff sessions
// racing for the same table cannot both commit.
//
// On success the member's RESERVATION thread flips in place to FLOOR —
// recipients become owner+barback, the waitress is addressed via WaitressID —
// the sale pipeline fires with any prior pending amount carried over, and a
// next-morning follow-up is scheduled.
func (rl *ReservationLifecycle) Seat(reservationID, waitressID string) (*models.Reservation, error) {
	var res models.Reservation
	if err := rl.DB.First(&res, "id = ?", reservationID).Error; err != nil {
		return nil, notFoundf("reservation not found")
	}
	if !models.CanTransition(res.Status, models.ReservationSat) {
		return nil, validationf("reservation is not confirmed")
	}

	tableNum, ok := rl.StagedTable(reservationID)
	if !ok {
		return nil, validationf("select a table from the floor plan first")
	}
	if waitressID == "" {
		return nil, validationf("assign a waitress before marking as sat")
	}

	var waitress models.Staff
	if err := rl.DB.First(&waitress, "id = ? AND role = ?", waitressID, models.RoleWaitress).Error; err != nil {
		return nil, validationf("assign a waitress before marking as sat")
	}

	tableKey := strconv.Itoa(tableNum)
	err := rl.DB.Transaction(func(tx *gorm.DB) error {
		// Commit-time re-check: another session may have sat this table
		// after our staging step.
		var taken int64
		if err := tx.Model(&models.Reservation{}).
			Where("id <> ? AND status = ? AND table_assigned = ?", res.ID, models.ReservationSat, tableKey).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return conflictf(fmt.Sprintf("table %d is already sat — pick another table", tableNum))
		}

		res.TableAssigned = &tableKey
		res.WaitressAssigned = &waitress.ID
		res.Status = models.ReservationSat
		return tx.Save(&res).Error
	})
	if err != nil {
		return nil, err
	}

	rl.mu.Lock()
	delete(rl.selected, reservationID)
	rl.mu.Unlock()

	// Carry amount/comp over from any prior pending table sale for this member.
	var amount float64
	var isComp bool
	var promoterID, promoterName *string
	if res.ReferredByPromoterID != nil {
		promoterID = res.ReferredByPromoterID
	}
	if res.MemberID != nil {
		var prior models.Sale
		if err := rl.DB.Where("member_id = ? AND type = ?", *res.MemberID, models.SaleTypeTable).
			First(&prior).Error; err == nil {
			amount = prior.Amount
			isComp = prior.IsComp
			if prior.PromoterID != nil {
				promoterID = prior.PromoterID
				promoterName = prior.PromoterName
			}
		}
	}

	eventName := res.EventName
	if eventName == "" {
		eventName = "tonight"
	}
	record := SaleRecord{
		ID:            res.ID,
		Type:          models.SaleTypeTable,
		MemberID:      res.MemberID,
		MemberName:    res.MemberName,
		MemberPhone:   res.MemberPhone,
		PromoterID:    promoterID,
		PromoterName:  promoterName,
		EventName:     eventName,
		DateKey:       res.DateKey,
		TableAssigned: res.TableAssigned,
		WaitressName:  &waitress.Name,
		PartySize:     res.PartySize,
		Amount:        amount,
		IsComp:        isComp,
	}
	if err := rl.Pipeline.RecordSeatingOrComp(record); err != nil {
		utils.ErrorLogger.Printf("Sale pipeline failed for reservation %s: %v", res.ID, err)
	}

	rl.flipThreadToFloor(&res, &waitress)

	if res.MemberID != nil {
		if err := rl.FollowUp.Schedule(*res.MemberID, eventName); err != nil {
			utils.ErrorLogger.Printf("Failed to schedule follow-up for member %s: %v", *res.MemberID, err)
		}
	}

	utils.InfoLogger.Printf("Table %s sat for %s, server %s", tableKey, res.MemberName, waitress.Name)
	return &res, nil
}

// flipThreadToFloor converts the member's RESERVATION thread in place:
// type/tag FLOOR, recipients replaced with owner+barback, waitress pinned on
// the thread, and an internal seating note appended.
func (rl *ReservationLifecycle) flipThreadToFloor(res *models.Reservation, waitress *models.Staff) {
	if res.MemberID == nil {
		return
	}
	var thread models.Thread
	err := rl.DB.Where("member_id = ? AND type = ?", *res.MemberID, models.ThreadTypeReservation).
		First(&thread).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			utils.ErrorLogger.Printf("Failed to look up reservation thread for %s: %v", res.ID, err)
		}
		return
	}

	thread.Type = models.ThreadTypeFloor
	thread.Tag = models.ThreadTagFloor
	thread.ThreadName = models.DefaultThreadName(models.ThreadTypeFloor, res.MemberName, res.TableAssigned)
	thread.TableNum = res.TableAssigned
	thread.WaitressID = &waitress.ID
	thread.WaitressName = waitress.Name
	thread.RecipientRoles = models.RoleList{models.RoleOwner, models.RoleBarback}
	if err := rl.DB.Save(&thread).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to flip thread %s to FLOOR: %v", thread.ID, err)
		return
	}

	note := fmt.Sprintf("🪑 Table %s sat. %s is assigned as server. Barbacks notified.",
		derefStr(res.TableAssigned), waitress.Name)
	if err := rl.Routing.AppendInternal(&thread, note); err != nil {
		utils.ErrorLogger.Printf("Failed to append seating note: %v", err)
	}
}

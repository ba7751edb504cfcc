package main

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/router"
	"github.com/velvethour/venue-app/services"
	"github.com/velvethour/venue-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndNight walks one night of service:
// 1. Member requests a reservation (pending + pending sale)
// 2. Manager accepts (confirmed, member notified)
// 3. Staff selects a table and marks it sat (FLOOR flip, sale, calendar,
//    follow-up booked)
// 4. Role-by-role inbox checks: waitress, barback, doorman
// 5. Doorman raises a security alert everyone relevant sees
func TestEndToEndNight(t *testing.T) {
	db := setupTestDB()
	deps := buildDeps(db)
	r := router.SetupRouter(db, deps)

	ownerToken := loginTest(t, r, "owner@velvethour.test")
	managerToken := tokenFor(t, db, "manager@velvethour.test")
	waitressToken := tokenFor(t, db, "dana@velvethour.test")
	barbackToken := tokenFor(t, db, "barback@velvethour.test")
	doormanToken := tokenFor(t, db, "doorman@velvethour.test")

	memberID := createMemberTest(t, r)
	resID := requestReservationTest(t, r, memberID)

	// Pending requests are owner-only in the queue.
	assertQueueLen(t, r, managerToken, 0)
	assertQueueLen(t, r, ownerToken, 1)

	acceptReservationTest(t, r, managerToken, resID)
	assertQueueLen(t, r, managerToken, 1)

	seatTest(t, r, managerToken, resID)

	// The member's thread flipped to FLOOR: visible to the assigned
	// waitress and the barback, gone from the manager inbox.
	assertInboxLen(t, r, waitressToken, 1)
	assertInboxLen(t, r, barbackToken, 1)
	assertInboxLen(t, r, managerToken, 0)

	// Sale confirmed with the intake price, calendar stamped once.
	var sale models.Sale
	if err := db.First(&sale, "id = ?", resID).Error; err != nil {
		t.Fatalf("sale not found: %v", err)
	}
	if sale.Status != models.SaleConfirmed {
		t.Fatalf("expected sale confirmed, got %s", sale.Status)
	}
	var calCount int64
	db.Model(&models.CalendarEvent{}).Where("sale_id = ?", resID).Count(&calCount)
	if calCount != 1 {
		t.Fatalf("expected 1 calendar entry, got %d", calCount)
	}

	// A follow-up job is booked for the member.
	var jobCount int64
	db.Model(&models.FollowUpJob{}).Where("member_id = ?", memberID).Count(&jobCount)
	if jobCount != 1 {
		t.Fatalf("expected 1 follow-up job, got %d", jobCount)
	}

	// Doorman sees nothing so far, then raises an alert that lands in
	// manager and doorman inboxes alike.
	assertInboxLen(t, r, doormanToken, 0)
	securityAlertTest(t, r, doormanToken)
	assertInboxLen(t, r, doormanToken, 1)
	assertInboxLen(t, r, managerToken, 1)

	// The waitress inbox stays pinned to her own table.
	assertInboxLen(t, r, waitressToken, 1)
}

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open in-memory sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.Member{},
		&models.MemberMessage{},
		&models.Staff{},
		&models.Promoter{},
		&models.PromoterGuest{},
		&models.Thread{},
		&models.ThreadMessage{},
		&models.Reservation{},
		&models.Sale{},
		&models.Comp{},
		&models.CalendarEvent{},
		&models.FollowUpJob{},
	)
	if err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	seed := []models.Staff{
		{ID: "STF-own", Name: "Victor", Email: "owner@velvethour.test", Role: models.RoleOwner},
		{ID: "STF-mgr", Name: "Marco", Email: "manager@velvethour.test", Role: models.RoleManager},
		{ID: "STF-dana", Name: "Dana", Email: "dana@velvethour.test", Role: models.RoleWaitress},
		{ID: "STF-bb", Name: "Rio", Email: "barback@velvethour.test", Role: models.RoleBarback},
		{ID: "STF-door", Name: "Tiny", Email: "doorman@velvethour.test", Role: models.RoleDoorman},
	}
	for _, s := range seed {
		s.Password = string(hashed)
		s.Active = true
		db.Create(&s)
	}
	return db
}

func buildDeps(db *gorm.DB) router.Deps {
	routing := services.NewRoutingEngine(db)
	pipeline := services.NewSalePipeline(db, routing)
	followUp := services.NewFollowUpScheduler(db, routing)
	lifecycle := services.NewReservationLifecycle(db, routing, pipeline, followUp)
	return router.Deps{
		Routing:   routing,
		Lifecycle: lifecycle,
		Pipeline:  pipeline,
		FollowUp:  followUp,
		Floor:     services.NewFloorPlan(db),
	}
}

func loginTest(t *testing.T, r *gin.Engine, email string) string {
	body, _ := json.Marshal(map[string]string{"email": email, "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("loginTest fail: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Token == "" {
		t.Fatalf("loginTest: token empty")
	}
	return resp.Data.Token
}

// tokenFor mints tokens directly so the strict login limiter stays quiet.
func tokenFor(t *testing.T, db *gorm.DB, email string) string {
	var staff models.Staff
	if err := db.First(&staff, "email = ?", email).Error; err != nil {
		t.Fatalf("tokenFor: staff %s not seeded: %v", email, err)
	}
	token, err := utils.GenerateToken(staff.ID, staff.Role)
	if err != nil {
		t.Fatalf("tokenFor: %v", err)
	}
	return token
}

func createMemberTest(t *testing.T, r *gin.Engine) string {
	body, _ := json.Marshal(map[string]interface{}{"name": "Ava Stone", "phone": "+15550001"})
	req := httptest.NewRequest(http.MethodPost, "/members", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("createMemberTest: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			ID string `json:"ID"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.ID == "" {
		t.Fatalf("createMemberTest: empty member id, body=%s", w.Body.String())
	}
	return resp.Data.ID
}

func requestReservationTest(t *testing.T, r *gin.Engine, memberID string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"date_key":   "2026-08-29",
		"event_name": "Velvet Fridays",
		"party_size": 4,
		"occasion":   "Birthday",
	})
	req := httptest.NewRequest(http.MethodPost, "/members/"+memberID+"/reservations", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("requestReservationTest: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			ID     string `json:"ID"`
			Status string `json:"Status"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Status != models.ReservationPending {
		t.Fatalf("requestReservationTest: expected pending, got %s", resp.Data.Status)
	}
	return resp.Data.ID
}

func acceptReservationTest(t *testing.T, r *gin.Engine, token, resID string) {
	req := httptest.NewRequest(http.MethodPost, "/staff/reservations/"+resID+"/accept", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("acceptReservationTest: code=%d, body=%s", w.Code, w.Body.String())
	}
}

func seatTest(t *testing.T, r *gin.Engine, token, resID string) {
	body, _ := json.Marshal(map[string]interface{}{"table": 4})
	req := httptest.NewRequest(http.MethodPost, "/staff/reservations/"+resID+"/table", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("seatTest select-table: code=%d, body=%s", w.Code, w.Body.String())
	}

	body, _ = json.Marshal(map[string]interface{}{"waitress_id": "STF-dana"})
	req = httptest.NewRequest(http.MethodPost, "/staff/reservations/"+resID+"/seat", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("seatTest seat: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Status string `json:"Status"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Status != models.ReservationSat {
		t.Fatalf("seatTest: expected sat, got %s", resp.Data.Status)
	}
}

func securityAlertTest(t *testing.T, r *gin.Engine, token string) {
	body, _ := json.Marshal(map[string]interface{}{"text": "Altercation at the front entrance"})
	req := httptest.NewRequest(http.MethodPost, "/staff/threads/security-alert", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("securityAlertTest: code=%d, body=%s", w.Code, w.Body.String())
	}
}

func assertQueueLen(t *testing.T, r *gin.Engine, token string, want int) {
	req := httptest.NewRequest(http.MethodGet, "/staff/reservations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("assertQueueLen: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Data) != want {
		t.Fatalf("assertQueueLen: want %d reservations, got %d (body=%s)", want, len(resp.Data), w.Body.String())
	}
}

func assertInboxLen(t *testing.T, r *gin.Engine, token string, want int) {
	req := httptest.NewRequest(http.MethodGet, "/staff/threads", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("assertInboxLen: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Data) != want {
		t.Fatalf("assertInboxLen: want %d threads, got %d (body=%s)", want, len(resp.Data), w.Body.String())
	}
}

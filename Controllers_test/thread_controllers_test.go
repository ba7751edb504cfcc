package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velvethour/venue-app/controllers"
	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/services"
	"github.com/velvethour/venue-app/utils"
)

func setupTestDBForThreads(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Staff{},
		&models.Member{},
		&models.MemberMessage{},
		&models.Thread{},
		&models.ThreadMessage{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// asRole injects the auth context the way the JWT middleware would.
func asRole(role, staffID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("role", role)
		c.Set("staff_id", staffID)
		c.Next()
	}
}

func setupThreadRouter(db *gorm.DB, role, staffID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	routing := services.NewRoutingEngine(db)
	threadCtrl := controllers.NewThreadController(db, routing)

	auth := router.Group("/", asRole(role, staffID))
	auth.GET("/threads", threadCtrl.GetThreads)
	auth.POST("/threads/:thread_id/reply", threadCtrl.ReplyThread)
	auth.PATCH("/threads/:thread_id/move", threadCtrl.MoveThread)
	auth.PATCH("/threads/:thread_id/retag", threadCtrl.RetagThread)
	auth.POST("/threads/security-alert", threadCtrl.CreateSecurityAlert)
	auth.POST("/threads/compose", threadCtrl.Compose)
	return router
}

func seedMemberThread(t *testing.T, db *gorm.DB) models.Thread {
	memberID := "MBR-1"
	member := models.Member{ID: memberID, Name: "Ava Stone"}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to seed member: %v", err)
	}
	thread := models.Thread{
		ID: "T-1", Type: models.ThreadTypeReservation, Tag: models.ThreadTagReservation,
		ThreadName:     "Reservation — Ava Stone",
		RecipientRoles: models.RoleList{models.RoleOwner, models.RoleManager, models.RoleVIPHost},
		MemberID:       &memberID, MemberName: "Ava Stone",
	}
	if err := db.Create(&thread).Error; err != nil {
		t.Fatalf("failed to seed thread: %v", err)
	}
	return thread
}

func TestGetThreadsFiltersByRole(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForThreads(t)
	seedMemberThread(t, db)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/threads", nil)
	setupThreadRouter(db, "manager", "STF-m").ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp utils.JSONResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	threads := resp.Data.([]interface{})
	assert.Len(t, threads, 1)

	// Barback is floor-only: a reservation thread stays hidden.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/threads", nil)
	setupThreadRouter(db, "barback", "STF-b").ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestReplyThread(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForThreads(t)
	thread := seedMemberThread(t, db)
	db.Create(&models.Staff{ID: "STF-m", Name: "Marco", Email: "marco@velvethour.test", Password: "x", Role: "manager", Active: true})

	payload := map[string]interface{}{"text": "Confirmed, see you at 10!"}
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/threads/"+thread.ID+"/reply", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	setupThreadRouter(db, "manager", "STF-m").ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.ThreadMessage{}).Where("thread_id = ?", thread.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	// The reply mirrors into the member's log.
	db.Model(&models.MemberMessage{}).Where("member_id = ?", "MBR-1").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReplyForbiddenForBarback(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForThreads(t)
	thread := seedMemberThread(t, db)

	body, _ := json.Marshal(map[string]interface{}{"text": "hi"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/threads/"+thread.ID+"/reply", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	setupThreadRouter(db, "barback", "STF-b").ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMoveThreadOwnerOnly(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForThreads(t)
	thread := seedMemberThread(t, db)

	body, _ := json.Marshal(map[string]interface{}{"type": models.ThreadTypeSecurity})

	// Manager may retag but not move.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/threads/"+thread.ID+"/move", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	setupThreadRouter(db, "manager", "STF-m").ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PATCH", "/threads/"+thread.ID+"/move", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	setupThreadRouter(db, "owner", "STF-o").ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var moved models.Thread
	assert.NoError(t, db.First(&moved, "id = ?", thread.ID).Error)
	assert.Equal(t, models.ThreadTypeSecurity, moved.Type)
}

func TestRetagThread(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForThreads(t)
	thread := seedMemberThread(t, db)

	body, _ := json.Marshal(map[string]interface{}{"tag": models.ThreadTagVIP})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/threads/"+thread.ID+"/retag", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	setupThreadRouter(db, "vip-host", "STF-v").ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var retagged models.Thread
	assert.NoError(t, db.First(&retagged, "id = ?", thread.ID).Error)
	assert.Equal(t, models.ThreadTagVIP, retagged.Tag)
	assert.Equal(t, models.ThreadTypeReservation, retagged.Type)
}

func TestCreateSecurityAlert(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForThreads(t)
	db.Create(&models.Staff{ID: "STF-d", Name: "Tiny", Email: "tiny@velvethour.test", Password: "x", Role: "doorman", Active: true})

	body, _ := json.Marshal(map[string]interface{}{"text": "Altercation at the front entrance"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/threads/security-alert", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	setupThreadRouter(db, "doorman", "STF-d").ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var alert models.Thread
	assert.NoError(t, db.First(&alert, "is_security_alert = ?", true).Error)
	assert.Equal(t, models.ThreadTypeSecurity, alert.Type)
}

func TestComposeToMember(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForThreads(t)
	db.Create(&models.Member{ID: "MBR-1", Name: "Ava Stone"})

	body, _ := json.Marshal(map[string]interface{}{
		"member_id": "MBR-1",
		"text":      "Your table is ready whenever you are.",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/threads/compose", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	setupThreadRouter(db, "vip-host", "STF-v").ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Waitress cannot initiate.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/threads/compose", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	setupThreadRouter(db, "waitress", "STF-w").ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestComposeToStaffOpensPrivateThread(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForThreads(t)
	db.Create(&models.Staff{ID: "STF-w1", Name: "Dana", Email: "dana@velvethour.test", Password: "x", Role: "waitress", Active: true})

	body, _ := json.Marshal(map[string]interface{}{
		"staff_id": "STF-w1",
		"text":     "Can you cover section B tonight?",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/threads/compose", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	setupThreadRouter(db, "owner", "STF-o").ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var thread models.Thread
	assert.NoError(t, db.First(&thread, "private_participant_id = ?", "STF-w1").Error)
	assert.Equal(t, models.ThreadTypePrivate, thread.Type)
	assert.Equal(t, models.ParticipantStaff, thread.PrivateParticipantKind)

	// Both targets at once is rejected.
	body, _ = json.Marshal(map[string]interface{}{
		"member_id": "MBR-1", "staff_id": "STF-w1", "text": "hi",
	})
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/threads/compose", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	setupThreadRouter(db, "owner", "STF-o").ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

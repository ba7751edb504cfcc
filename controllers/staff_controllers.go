package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type StaffController struct {
	DB *gorm.DB
}

func NewStaffController(db *gorm.DB) *StaffController {
	return &StaffController{DB: db}
}

// Register a staff account.
func (sc *StaffController) Register(c *gin.Context) {
	type request struct {
		Name     string  `json:"name" binding:"required"`
		Email    string  `json:"email" binding:"required,email"`
		Password string  `json:"password" binding:"required"`
		Role     string  `json:"role" binding:"required"` // owner, manager, vip-host, waitress, barback, doorman, bartender
		Section  *string `json:"section"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	staff := models.Staff{
		ID:       utils.NewID("STF"),
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     req.Role,
		Section:  req.Section,
		Active:   true,
	}
	if err := sc.DB.Create(&staff).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New staff registered: %s (role=%s)", staff.Email, staff.Role)
	utils.RespondJSON(c, http.StatusCreated, "Staff registered", gin.H{
		"staff_id": staff.ID,
	})
}

// Login -> return JWT.
func (sc *StaffController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var staff models.Staff
	if err := sc.DB.Where("email = ?", input.Email).First(&staff).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}
	if !staff.Active {
		utils.RespondError(c, http.StatusForbidden, errors.New("account is inactive"))
		return
	}

	token, err := utils.GenerateToken(staff.ID, staff.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":    token,
		"staff_id": staff.ID,
		"role":     staff.Role,
		"name":     staff.Name,
	})
}

func (sc *StaffController) GetProfile(c *gin.Context) {
	var staff models.Staff
	if err := sc.DB.First(&staff, "id = ?", currentStaffID(c)).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	staff.Password = ""
	utils.RespondJSON(c, http.StatusOK, "Profile", staff)
}

func (sc *StaffController) GetAllStaff(c *gin.Context) {
	var staff []models.Staff
	q := sc.DB.Order("role, name")
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Find(&staff).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	for i := range staff {
		staff[i].Password = ""
	}
	utils.RespondJSON(c, http.StatusOK, "List of staff", staff)
}

// SetActive flips a staff member's active flag (day off / reactivate).
func (sc *StaffController) SetActive(c *gin.Context) {
	staffID := c.Param("staff_id")
	var body struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var staff models.Staff
	if err := sc.DB.First(&staff, "id = ?", staffID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	staff.Active = *body.Active
	if err := sc.DB.Save(&staff).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Staff updated", gin.H{"staff_id": staff.ID, "active": staff.Active})
}
